// Package ohsome is the HTTP client for the ohsome API, the external geodata
// statistics service. Indicators query it during preprocessing; the engine
// never talks to it directly.
package ohsome

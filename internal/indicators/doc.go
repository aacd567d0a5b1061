// Package indicators holds the concrete indicator implementations and the
// New factory the engine constructs them through. Each implementation embeds
// indicator.BaseIndicator and receives its external collaborators (geodata
// query client, zonal statistics) via Deps at construction.
package indicators

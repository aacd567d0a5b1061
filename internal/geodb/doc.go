// Package geodb is the PostGIS adapter: region geometries, zonal population
// statistics from the GHS raster, and the persisted indicator results that
// back the engine's cache-aside path.
package geodb

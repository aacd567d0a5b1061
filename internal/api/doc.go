// Package api is the HTTP surface: indicator and report construction
// endpoints, registry listings, health and Prometheus metrics.
package api

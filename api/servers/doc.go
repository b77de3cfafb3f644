// Package servers wires the API handlers into an HTTP server with CORS,
// request logging, health and drain endpoints, pprof and a separate metrics
// listener.
package servers

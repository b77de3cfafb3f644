// Package api defines the HTTP server configuration and the JSON request and
// response shapes shared by the handlers, the Go client, and the CLI tools.
package api

// Package clients provides a Go client for the provisioning backend's HTTP
// API, used by the operator CLI and available for automation.
package clients

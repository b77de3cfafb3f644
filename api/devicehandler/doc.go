// Package devicehandler serves the device management API: listing enrolled
// devices, reading status, relaying lock/unlock/wallpaper commands singly or
// in bulk, deleting records, and registry statistics.
package devicehandler

// Package server holds the HTTP admin server configuration.
//
// The admin server exposes the sync status and trigger endpoints and the on-demand
// guild classification. The start command owns the Fiber app lifecycle; this package
// only defines the settings (port, API key).
package server

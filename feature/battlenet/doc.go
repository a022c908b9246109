// Package battlenet talks to the upstream game data API.
//
// Client performs the raw HTTP calls, CredentialManager keeps a bearer token
// fresh, Limiter enforces the reservoir, concurrency and spacing limits, and
// Gateway combines them into the three reads the sync needs. Every remote
// call goes through Gateway so it is counted against the limits and retried
// once when throttled.
package battlenet

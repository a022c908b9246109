// Package middleware groups the Fiber middleware used by the admin API.
//
//   - rayid: assigns a correlation id to every request (X-Ray-ID).
//   - auth: protects every route with a static API key (X-API-Key).
package middleware

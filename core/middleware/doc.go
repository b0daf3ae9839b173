// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation (X-API-Key header or api_key query parameter).
//   - rayid: Assigns every request a Ray ID, stored in the context locals and
//     echoed in the X-Ray-ID response header for tracing.
//
// Register rayid first so every later log line carries the id.
package middleware

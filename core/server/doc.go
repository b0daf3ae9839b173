// Package server holds the HTTP server configuration.
//
// The Config struct defines the HTTP port, the API key checked by the auth
// middleware and the read/write timeouts handed to Fiber. It is embedded in
// core/config under the "server" key (SERVER_PORT, SERVER_API_KEY, ...).
package server

// Package transport serves the scribe content API over HTTP. It owns the
// route table, request decoding and response encoding, the HTTP-level
// middleware (recovery, request ID, logging), and the server lifecycle
// with graceful shutdown.
package transport

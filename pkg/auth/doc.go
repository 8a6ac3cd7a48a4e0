// Package auth implements the security core of the scribe API: password
// hashing, signed token issuance and verification, the authentication
// middleware that resolves a caller identity per request, the ownership
// policy applied by mutating handlers, and the per-client rate limiter.
package auth

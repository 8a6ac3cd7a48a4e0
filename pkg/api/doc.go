// Package api defines the wire types of the scribe content API: domain
// records (users, posts, comments), request/response payloads, request
// validation, and the structured error envelope shared by all endpoints.
package api

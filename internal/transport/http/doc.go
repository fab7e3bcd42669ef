// Package http contains the HTTP transport layer: chi handlers that
// translate requests into service calls and render JSON responses.
package http

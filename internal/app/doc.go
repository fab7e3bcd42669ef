// Package app provides application initialization and lifecycle management.
// It wires configuration, logging, metrics, the render cache, the WebSocket
// hub and the HTTP transport together at startup, and handles graceful
// shutdown on SIGINT/SIGTERM.
package app

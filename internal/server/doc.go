// Package server implements the HTTP server and handlers of the personnel
// records admin. It wires the login gate, the record pages, document
// serving and the health and metrics endpoints around a record store and
// an upload manager, and provides lifecycle helpers used by tests and the
// production binary.
package server

// Package middleware provides HTTP middleware for the metrics and health
// listener.
package middleware

// Package middleware provides HTTP middleware for the tagview server.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Response compression (gzip) for the JSON API
//   - Prometheus request metrics with ID-normalized path labels
//   - Configurable filtering for health check noise
package middleware

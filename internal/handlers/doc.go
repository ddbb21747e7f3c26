// Package handlers provides HTTP request handlers for the tag viewer API.
//
// It includes handlers for:
//   - Tag rows, filter clicks, and clear-all
//   - Image listings, sorting, originals, and thumbnails
//   - Selection clicks, wheel movement, and batch tagging
//   - Tag suggestions for the tag input
//   - Watched directory management and rescans
//   - Password authentication and sessions
//   - Health checks, status, and Prometheus metrics
package handlers

// Package database provides SQLite persistence for the tag viewer.
//
// It handles storage and retrieval of:
//   - Watched root directories and the images indexed under them
//   - Tags and image-tag assignments
//   - Application settings (sort preferences, password gate, scan bookkeeping)
//   - Authentication sessions
//
// The database uses WAL mode for improved concurrent read performance
// and includes automatic schema initialization.
package database

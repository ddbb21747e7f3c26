// Package logging provides the leveled logging used across the tagview
// engine and its HTTP surface.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable;
// DEBUG=1 forces debug output regardless of LOG_LEVEL.
package logging

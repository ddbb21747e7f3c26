// Command setpw provides a CLI utility for managing the tagview access
// password.
//
// It supports the following operations:
//   - set: Set or replace the access password
//   - clear: Remove the password, leaving the API open
//   - status: Check if a password is configured
//
// Usage:
//
//	setpw <command>
//
// Commands:
//
//	set     Set or replace the access password. All existing sessions
//	        are invalidated. This is how the authentication gate is
//	        turned on: a fresh database has no password and serves
//	        requests without a login.
//
//	clear   Remove the password and all sessions. The API becomes
//	        open until a new password is set.
//
//	status  Display whether a password is configured.
//
// Environment:
//
//	DATABASE_DIR - Path to database directory (default: /database)
//
// Notes:
//
// Tagview uses a single shared password rather than user accounts.
// There is no in-band password setup or change endpoint; this utility,
// run against the database volume, is the only way to manage the
// password. The AUTH_ENABLED environment variable of the server can
// disable the gate entirely if the password is lost.
package main

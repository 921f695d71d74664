// Package migrate applies embedded goose migrations for the relational queue backends.
//
// goose keeps its dialect, table name and file system in package globals, so Up
// serializes callers; the Postgres and SQLite backends can be migrated from the
// same process without stepping on each other.
package migrate

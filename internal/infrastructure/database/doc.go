// Package database provides the SQLite connection used by the wire-traffic
// trace store.
//
// SQLite fits the driver's needs: a single local file, no server, and the
// write rate of a half-duplex serial session is trivially within a single
// writer's capacity. WAL mode keeps trace queries from blocking recording.
//
// Schema for the trace tables is owned by the tracelog package; this
// package only opens and configures the connection.
package database

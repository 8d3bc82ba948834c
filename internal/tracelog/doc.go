// Package tracelog records wire traffic between the controller and the
// bridge into SQLite.
//
// Every line written and every payload read is stored with a direction, a
// timestamp, and the session UUID of the current run. The resulting log
// replaces ad-hoc serial port sniffing when debugging an instrument that
// misbehaves: the exact exchange can be replayed after the fact.
//
// The recorder plugs into the controller as its TraceRecorder hook and
// never fails the wire; insert errors are logged and dropped.
package tracelog

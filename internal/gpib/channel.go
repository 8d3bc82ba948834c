package gpib

// Channel is the duplex byte stream a Controller drives. Implementations
// wrap the physical transport (typically a serial port) and own its read
// timeout: Read and ReadUntil block up to that timeout and return what has
// arrived, so a timeout surfaces as a short or empty read, not an error.
type Channel interface {
	// Write sends the bytes to the bridge.
	Write(p []byte) (int, error)

	// Read fills p with up to len(p) bytes, blocking until the buffer is
	// full or the read timeout expires.
	Read(p []byte) (int, error)

	// ReadUntil reads until delim is seen or the read timeout expires.
	// The returned bytes include the delimiter when one was found.
	ReadUntil(delim byte) ([]byte, error)

	// Close releases the underlying transport.
	Close() error
}

// Logger defines the logging interface used by this package.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// TraceRecorder receives a copy of every line written to and every payload
// read from the bridge. Implementations must not block; recording failures
// are the recorder's problem, never the wire's.
type TraceRecorder interface {
	RecordWrite(text string)
	RecordRead(text string)
}

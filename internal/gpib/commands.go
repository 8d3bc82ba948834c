package gpib

import (
	"fmt"
	"strings"
)

// DefaultQueryRead is the number of bytes read back after a query when no
// explicit size is given at construction.
const DefaultQueryRead = 100

// ReadUntilTerminator is the sentinel read size for queries whose response
// is framed by the line terminator rather than a byte count.
const ReadUntilTerminator = -1

// Descriptor is a named wire command. Rendering is pure: it produces the
// exact text to send and never touches the transport.
type Descriptor interface {
	// Name returns the registry key for this descriptor.
	Name() string

	// Render produces the wire text for a call with the given arguments.
	Render(args ...any) string
}

// Command describes a plain instrument action: a write with no expected
// response. Immutable after construction.
type Command struct {
	name string
	text string
}

// NewCommand creates a command descriptor. The text is the literal prefix
// sent on the wire; call-time arguments are appended space-separated.
func NewCommand(name, text string) Command {
	return Command{name: name, text: text}
}

// Name returns the registry key for this command.
func (c Command) Name() string { return c.name }

// Text returns the literal command text.
func (c Command) Text() string { return c.text }

// Render joins the command text and the stringified arguments with single
// spaces. With no arguments the result is the text alone, no trailing space.
func (c Command) Render(args ...any) string {
	if len(args) == 0 {
		return c.text
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, c.text)
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, " ")
}

// Query describes an instrument query: a write followed by a read of the
// declared size. Queries are argument-free on the wire; only the response
// framing varies. Immutable after construction.
type Query struct {
	Command
	readBytes int
}

// NewQuery creates a query descriptor reading DefaultQueryRead bytes back.
func NewQuery(name, text string) Query {
	return NewQueryN(name, text, DefaultQueryRead)
}

// NewQueryN creates a query descriptor with an explicit response size.
// A negative readBytes (ReadUntilTerminator) means read until the line
// terminator instead of a fixed byte count.
func NewQueryN(name, text string, readBytes int) Query {
	return Query{Command: NewCommand(name, text), readBytes: readBytes}
}

// ReadBytes returns the declared response size. Negative means the response
// is read until the line terminator.
func (q Query) ReadBytes() int { return q.readBytes }

// Render ignores any arguments and appends "?" to the query text.
func (q Query) Render(...any) string {
	return q.text + "?"
}

package gpib

import (
	"fmt"
	"sort"
	"sync"
)

// QuerySpec describes one query entry in a registration table.
type QuerySpec struct {
	// Text is the literal query text without the trailing "?".
	Text string

	// ReadBytes is the response size. Zero means DefaultQueryRead;
	// ReadUntilTerminator means read until the line terminator.
	ReadBytes int
}

// Registry maps command names to wire descriptors for one owning
// Instrument. Invoking an entry writes its rendered text through the owner
// and, for queries, performs the associated read.
//
// Registration is first-wins: adding a name that is already present leaves
// the original entry in place. Each Instrument owns its own Registry
// instances, so runtime mutation never leaks across instruments.
//
// All methods are safe for concurrent use.
type Registry struct {
	owner   *Instrument
	mu      sync.RWMutex
	entries map[string]Descriptor
}

// newRegistry creates an empty registry owned by the given instrument.
func newRegistry(owner *Instrument) *Registry {
	return &Registry{
		owner:   owner,
		entries: make(map[string]Descriptor),
	}
}

// Add registers a descriptor. Registering a name that is already present is
// a no-op; the registry never silently overwrites.
func (r *Registry) Add(d Descriptor) error {
	if d.Name() == "" {
		return ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[d.Name()]; ok {
		return nil // First registration wins
	}
	r.entries[d.Name()] = d
	return nil
}

// AddCommands registers a table of plain commands, name to command text.
// Existing names are left untouched.
func (r *Registry) AddCommands(table map[string]string) {
	for name, text := range table {
		_ = r.Add(NewCommand(name, text)) // Only fails on empty name
	}
}

// AddQueries registers a table of queries. A zero ReadBytes in a spec means
// DefaultQueryRead. Existing names are left untouched.
func (r *Registry) AddQueries(table map[string]QuerySpec) {
	for name, spec := range table {
		readBytes := spec.ReadBytes
		if readBytes == 0 {
			readBytes = DefaultQueryRead
		}
		_ = r.Add(NewQueryN(name, spec.Text, readBytes))
	}
}

// Remove unregisters a name. Removing an absent name is a no-op.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// Get returns the descriptor registered under name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.entries[name]
	return d, ok
}

// Names returns the registered names in lexicographic order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke renders the named entry and writes it through the owning
// instrument. For queries the associated read is performed and its payload
// returned; plain commands return an empty string.
//
// Returns an error wrapping ErrUnknownCommand when the name is not
// registered, or any transport failure from the write/read.
func (r *Registry) Invoke(name string, args ...any) (string, error) {
	r.mu.RLock()
	d, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}

	if err := r.owner.Write(d.Render(args...)); err != nil {
		return "", err
	}

	q, isQuery := d.(Query)
	if !isQuery {
		return "", nil
	}

	if q.ReadBytes() < 0 {
		return r.owner.ReadLine()
	}
	return r.owner.Read(q.ReadBytes())
}

package schema

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"sync"
)

//go:embed sources/*.yaml
var builtinFS embed.FS

// Catalog is a named set of sources. It is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	sources map[string]*Source
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{sources: make(map[string]*Source)}
}

// Builtin returns a catalog holding the definitions shipped in the binary.
func Builtin() (*Catalog, error) {
	c := NewCatalog()
	entries, err := fs.Glob(builtinFS, "sources/*.yaml")
	if err != nil {
		return nil, err
	}
	for _, name := range entries {
		data, err := builtinFS.ReadFile(name)
		if err != nil {
			return nil, err
		}
		src, err := Load(data)
		if err != nil {
			return nil, fmt.Errorf("builtin %s: %w", path.Base(name), err)
		}
		if err := c.Add(src); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// BuiltinDefinition returns the raw YAML of a builtin definition.
// It is used to write templates to disk.
func BuiltinDefinition(name string) ([]byte, error) {
	data, err := builtinFS.ReadFile("sources/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, name)
	}
	return data, nil
}

// Add registers src. A name that is already present is an error.
func (c *Catalog) Add(src *Source) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sources[src.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSource, src.Name)
	}
	c.sources[src.Name] = src
	return nil
}

// Put registers src, replacing any source with the same name.
func (c *Catalog) Put(src *Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[src.Name] = src
}

// Get returns the source called name.
func (c *Catalog) Get(name string) (*Source, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	src, ok := c.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, name)
	}
	return src, nil
}

// Names returns the registered names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.sources))
	for name := range c.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of sources.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sources)
}

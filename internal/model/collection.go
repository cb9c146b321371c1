package model

// Collection is the ordered set of entries declared by one configuration
// file, keyed by name.
type Collection struct {
	entries []*Entry
	index   map[string]int
}

// NewCollection returns an empty collection
func NewCollection() *Collection {
	return &Collection{index: make(map[string]int)}
}

// Find returns the entry called name, or nil
func (c *Collection) Find(name string) *Entry {
	if i, ok := c.index[name]; ok {
		return c.entries[i]
	}
	return nil
}

// FindOrAdd returns the entry called name, creating it at the end of the
// collection when it does not exist yet.
func (c *Collection) FindOrAdd(name string) *Entry {
	if e := c.Find(name); e != nil {
		return e
	}
	return c.Add(NewEntry(name))
}

// Add appends e. An existing entry with the same name is replaced in place.
func (c *Collection) Add(e *Entry) *Entry {
	if i, ok := c.index[e.Name]; ok {
		c.entries[i] = e
		return e
	}
	c.index[e.Name] = len(c.entries)
	c.entries = append(c.entries, e)
	return e
}

// Rename changes the name of e, keeping its position. It reports false if
// another entry already uses the new name or e is not in c.
func (c *Collection) Rename(e *Entry, name string) bool {
	i, ok := c.index[e.Name]
	if !ok || c.entries[i] != e {
		return false
	}
	if _, taken := c.index[name]; taken && name != e.Name {
		return false
	}
	delete(c.index, e.Name)
	e.Name = name
	c.index[name] = i
	return true
}

// Entries returns the entries in declaration order
func (c *Collection) Entries() []*Entry {
	return c.entries
}

func (c *Collection) Len() int {
	return len(c.entries)
}

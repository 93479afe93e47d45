package message

import (
	"reflect"
	"strings"
)

// Chain is an ordered, immutable sequence of components.
// The zero value is the empty chain.
type Chain struct {
	items []Component
}

// NewChain freezes components into a chain.
func NewChain(components ...Component) Chain {
	return freeze(components)
}

func freeze(components []Component) Chain {
	if len(components) == 0 {
		return Chain{}
	}
	items := make([]Component, len(components))
	copy(items, components)
	return Chain{items: items}
}

func (c Chain) Len() int { return len(c.items) }

func (c Chain) At(i int) Component { return c.items[i] }

// Components returns a copy of the chain contents.
func (c Chain) Components() []Component {
	out := make([]Component, len(c.items))
	copy(out, c.items)
	return out
}

// Source returns the message source at index 0, if any.
func (c Chain) Source() (MessageSource, bool) {
	if len(c.items) == 0 {
		return MessageSource{}, false
	}
	src, ok := c.items[0].(MessageSource)
	return src, ok
}

// WithoutSource returns the chain minus any message source.
func (c Chain) WithoutSource() Chain {
	b := c.Builder()
	for i := b.Len() - 1; i >= 0; i-- {
		if _, ok := b.At(i).(MessageSource); ok {
			b.Remove(i)
		}
	}
	return b.Build()
}

// ContentString concatenates the user-visible content of every component.
func (c Chain) ContentString() string {
	var sb strings.Builder
	for _, item := range c.items {
		sb.WriteString(item.Content())
	}
	return sb.String()
}

// Equal reports structural equality.
func (c Chain) Equal(other Chain) bool {
	if len(c.items) != len(other.items) {
		return false
	}
	for i := range c.items {
		if !reflect.DeepEqual(c.items[i], other.items[i]) {
			return false
		}
	}
	return true
}

// Builder returns a mutable copy of c.
func (c Chain) Builder() *Builder {
	return NewBuilder(c.items...)
}

// Builder is the mutable, index-addressable form of a chain.
type Builder struct {
	items []Component
}

func NewBuilder(components ...Component) *Builder {
	items := make([]Component, len(components), len(components)+4)
	copy(items, components)
	return &Builder{items: items}
}

func (b *Builder) Len() int { return len(b.items) }

func (b *Builder) At(i int) Component { return b.items[i] }

// Add appends components; nil entries are dropped.
func (b *Builder) Add(components ...Component) {
	for _, c := range components {
		if c != nil {
			b.items = append(b.items, c)
		}
	}
}

// AddChain appends every component of c.
func (b *Builder) AddChain(c Chain) {
	b.items = append(b.items, c.items...)
}

func (b *Builder) Insert(i int, c Component) {
	b.items = append(b.items, nil)
	copy(b.items[i+1:], b.items[i:])
	b.items[i] = c
}

// Splice replaces the component at i with the contents of c.
func (b *Builder) Splice(i int, c Chain) {
	tail := append([]Component(nil), b.items[i+1:]...)
	b.items = append(append(b.items[:i], c.items...), tail...)
}

func (b *Builder) Remove(i int) Component {
	c := b.items[i]
	b.items = append(b.items[:i], b.items[i+1:]...)
	return c
}

func (b *Builder) Set(i int, c Component) {
	b.items[i] = c
}

// IndexOf returns the index of the first component of type t at or
// after from, or -1.
func (b *Builder) IndexOf(t ComponentType, from int) int {
	for i := from; i < len(b.items); i++ {
		if b.items[i].Type() == t {
			return i
		}
	}
	return -1
}

// Contains reports whether any component has type t.
func (b *Builder) Contains(t ComponentType) bool {
	return b.IndexOf(t, 0) >= 0
}

// Build freezes the builder contents. The builder stays usable.
func (b *Builder) Build() Chain {
	return freeze(b.items)
}

// Package units holds the built-in protocol units. Each unit owns a subset
// of wire elements and components; Default installs all of them in
// dispatch order.
package units

import (
	"fmt"

	"github.com/danmuck/msgchain/internal/protocol"
)

var constructors = []struct {
	name string
	new  func() protocol.Unit
}{
	{"text", func() protocol.Unit { return Text{} }},
	{"face", func() protocol.Unit { return Face{} }},
	{"image", func() protocol.Unit { return Image{} }},
	{"quote", func() protocol.Unit { return Quote{} }},
	{"audio", func() protocol.Unit { return Audio{} }},
	{"special", func() protocol.Unit { return Special{} }},
	{"rich", func() protocol.Unit { return Rich{} }},
	{"flags", func() protocol.Unit { return Flags{} }},
}

// Default returns every built-in unit in dispatch order.
func Default() []protocol.Unit {
	out := make([]protocol.Unit, 0, len(constructors))
	for _, c := range constructors {
		out = append(out, c.new())
	}
	return out
}

// Names lists the built-in unit names in dispatch order.
func Names() []string {
	out := make([]string, 0, len(constructors))
	for _, c := range constructors {
		out = append(out, c.name)
	}
	return out
}

// Select returns the named units in the order given.
func Select(names []string) ([]protocol.Unit, error) {
	out := make([]protocol.Unit, 0, len(names))
	for _, name := range names {
		u, err := lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func lookup(name string) (protocol.Unit, error) {
	for _, c := range constructors {
		if c.name == name {
			return c.new(), nil
		}
	}
	return nil, fmt.Errorf("%w: unknown unit %q", protocol.ErrInvalidUnit, name)
}

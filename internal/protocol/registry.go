package protocol

import "fmt"

// Registry stores protocol units in installation order by stable name.
// Dispatch consults units in that order.
type Registry struct {
	order []Unit
	items map[string]Unit

	decoders  []ElementDecoder
	encoders  []ComponentEncoder
	finishers []EncodeFinisher
	light     []LightRefiner
	deep      []DeepRefiner
}

// NewRegistry creates an empty unit registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Unit)}
}

// ValidateName checks the unit name format: lowercase segments joined by
// '.', '-' or '_'.
func ValidateName(name string) error {
	if !isValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidUnit, name)
	}
	return nil
}

// Register appends a unit.
func (r *Registry) Register(u Unit) error {
	if u == nil {
		return ErrUnitNil
	}
	name := u.Name()
	if err := ValidateName(name); err != nil {
		return err
	}
	if _, ok := r.items[name]; ok {
		return fmt.Errorf("%w: %s", ErrUnitExists, name)
	}
	r.items[name] = u
	r.order = append(r.order, u)

	if d, ok := u.(ElementDecoder); ok {
		r.decoders = append(r.decoders, d)
	}
	if e, ok := u.(ComponentEncoder); ok {
		r.encoders = append(r.encoders, e)
	}
	if f, ok := u.(EncodeFinisher); ok {
		r.finishers = append(r.finishers, f)
	}
	if l, ok := u.(LightRefiner); ok {
		r.light = append(r.light, l)
	}
	if d, ok := u.(DeepRefiner); ok {
		r.deep = append(r.deep, d)
	}
	return nil
}

// Resolve returns a unit by name.
func (r *Registry) Resolve(name string) (Unit, bool) {
	u, ok := r.items[name]
	return u, ok
}

// Names returns unit names in installation order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.order))
	for _, u := range r.order {
		out = append(out, u.Name())
	}
	return out
}

func (r *Registry) Len() int { return len(r.order) }

func isValidName(id string) bool {
	if id == "" {
		return false
	}
	lastSep := false
	for i := 0; i < len(id); i++ {
		c := id[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '.' || c == '-' || c == '_'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if i == 0 || i == len(id)-1 {
			if isSep {
				return false
			}
		}
		if isSep && lastSep {
			return false
		}
		lastSep = isSep
	}
	return true
}

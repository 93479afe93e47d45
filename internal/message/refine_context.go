package message

// Key is a typed refine-context key. Keys compare by identity.
type Key[T any] struct {
	name string
}

func NewKey[T any](name string) *Key[T] {
	return &Key[T]{name: name}
}

func (k *Key[T]) String() string { return k.name }

// Built-in keys.
var (
	KeyGroupID = NewKey[int64]("group_id")
	// KeyFetchDepth counts nested forward/long-message resolutions.
	KeyFetchDepth = NewKey[int]("fetch_depth")
	// KeyNoDeepRefine disables deep refinement for a decode.
	KeyNoDeepRefine = NewKey[bool]("no_deep_refine")
)

// RefineContext is a read-only key/value bag threaded through refinement.
// The zero value is the empty context.
type RefineContext struct {
	values map[any]any
}

// EmptyRefineContext is the default context.
var EmptyRefineContext = RefineContext{}

// With returns a copy of rc with key set to v.
func With[T any](rc RefineContext, key *Key[T], v T) RefineContext {
	values := make(map[any]any, len(rc.values)+1)
	for k, val := range rc.values {
		values[k] = val
	}
	values[key] = v
	return RefineContext{values: values}
}

// Get returns the value stored under key.
func Get[T any](rc RefineContext, key *Key[T]) (T, bool) {
	v, ok := rc.values[key]
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// GetOr returns the value under key or def.
func GetOr[T any](rc RefineContext, key *Key[T], def T) T {
	if v, ok := Get(rc, key); ok {
		return v
	}
	return def
}

func (rc RefineContext) Len() int { return len(rc.values) }

package protocol

import (
	"errors"
	"fmt"

	"github.com/danmuck/msgchain/internal/message"
)

var (
	ErrUnitExists     = errors.New("protocol: unit already registered")
	ErrUnitNil        = errors.New("protocol: unit is nil")
	ErrInvalidUnit    = errors.New("protocol: invalid unit name")
	ErrDeepRefine     = errors.New("protocol: deep refine failed")
	ErrEncode         = errors.New("protocol: encode failed")
	ErrNoFetcher      = errors.New("protocol: no fetcher configured")
	ErrInvalidRequest = errors.New("protocol: invalid decode request")
)

// UnencodableError reports a required component no unit could encode.
type UnencodableError struct {
	Index int
	Type  message.ComponentType
}

func (e UnencodableError) Error() string {
	return fmt.Sprintf("protocol: no encoder for required component %s at index %d", e.Type, e.Index)
}

func (e UnencodableError) Unwrap() error { return ErrEncode }

// RefineError wraps a deep-refine failure with the placeholder it was resolving.
type RefineError struct {
	Index int
	Type  message.ComponentType
	Err   error
}

func (e RefineError) Error() string {
	return fmt.Sprintf("protocol: refine %s at index %d: %v", e.Type, e.Index, e.Err)
}

func (e RefineError) Unwrap() []error {
	return []error{ErrDeepRefine, e.Err}
}

package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by ImportError.Is
var (
	ErrParse       = errors.New("malformed catalog document")
	ErrMissingData = errors.New("catalog document has no flights")
)

// ImportErrorKind categorises why a document could not be imported
type ImportErrorKind int

// ImportErrorKind constants
const (
	ParseError ImportErrorKind = iota
	MissingData
)

func (k ImportErrorKind) String() string {
	switch k {
	case ParseError:
		return "ParseError"
	case MissingData:
		return "MissingData"
	default:
		return "Unknown"
	}
}

// ImportError is returned by LoadFromJSON and DecodeDocument. A catalog that
// returned an ImportError still holds exactly what it held before the call.
type ImportError struct {
	Kind ImportErrorKind
	Err  error
}

func (e *ImportError) sentinel() error {
	if e.Kind == MissingData {
		return ErrMissingData
	}
	return ErrParse
}

func (e *ImportError) Error() string {
	if e.Err == nil {
		return e.sentinel().Error()
	}
	return fmt.Sprintf("%s: %v", e.sentinel(), e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind
func (e *ImportError) Is(target error) bool {
	return target == e.sentinel()
}

// SerializeError is returned when the catalog cannot be encoded. It signals a
// bug rather than bad input.
type SerializeError struct {
	Err error
}

func (e *SerializeError) Error() string {
	return fmt.Sprintf("failed to serialize catalog: %v", e.Err)
}

func (e *SerializeError) Unwrap() error {
	return e.Err
}

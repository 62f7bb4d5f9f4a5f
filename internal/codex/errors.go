// ABOUTME: Error taxonomy for the codex registry and composite types
// ABOUTME: Static configuration errors are fatal at startup; value errors are reported to users

package codex

import (
	"errors"
	"fmt"
)

// ErrStaticConfig marks programming or configuration defects detected while
// types are being registered or built. They are not runtime conditions.
var ErrStaticConfig = errors.New("static configuration error")

var (
	// ErrDuplicateType is returned when a type key is registered twice.
	ErrDuplicateType = fmt.Errorf("%w: type already registered", ErrStaticConfig)
	// ErrMalformedFieldSpec is returned for structure fields with no name or an unknown type.
	ErrMalformedFieldSpec = fmt.Errorf("%w: malformed field spec", ErrStaticConfig)
	// ErrShapeConflict is returned when a structure name is reused with different fields.
	ErrShapeConflict = fmt.Errorf("%w: structure already defined with a different shape", ErrStaticConfig)
	// ErrUnhashableKey is returned when a mapping is built over a composite key type.
	ErrUnhashableKey = fmt.Errorf("%w: mapping key type is not hashable", ErrStaticConfig)
)

var (
	// ErrUnknownType is returned when no codex is registered for a type key.
	ErrUnknownType = errors.New("unknown type")
	// ErrSerialization is matched by every *SerializationError.
	ErrSerialization = errors.New("serialization error")
	// ErrValueType is returned when a codex is handed a value of another Go type.
	ErrValueType = errors.New("value is not of the codex type")
	// ErrElementType is returned when a list or mapping receives a value of the wrong type.
	ErrElementType = errors.New("wrong element type")
	// ErrFieldType is returned when a structure field is set to a value of the wrong type.
	ErrFieldType = errors.New("wrong field type")
	// ErrUnknownField is returned when a structure has no field with the given name.
	ErrUnknownField = errors.New("unknown field")
	// ErrUnrecognizedList is wrapped when no list parsing strategy succeeds.
	ErrUnrecognizedList = errors.New("I don't recognise the format of this list")
)

// SerializationError reports a value that could not be converted to or from
// its textual form.
type SerializationError struct {
	TypeName string
	Value    string
	Err      error
}

func (e *SerializationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("cannot serialize %s: %v", e.TypeName, e.Err)
	}
	return fmt.Sprintf("cannot deserialize %q into %s: %v", e.Value, e.TypeName, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrSerialization) match any SerializationError.
func (e *SerializationError) Is(target error) bool {
	return target == ErrSerialization
}

// Package codecerr defines a typed error taxonomy for codec failures: input
// too small, unknown tag and bad character.
//
// The Marshal/Unmarshal functions of the codec packages (pkg/descriptor,
// pkg/directory, pkg/pathtable, pkg/eltorito, pkg/encoding, pkg/validation)
// do not return these types; they report failures as plain fmt errors.
package codecerr

import "fmt"

// InputTooSmall is returned when a buffer being unmarshalled is shorter
// than the fixed or declared size of the structure it is supposed to hold.
type InputTooSmall struct {
	// Expected is the number of bytes the field/structure requires.
	Expected int
	// Got is the number of bytes actually available.
	Got int
	// When names the field or structure being decoded.
	When string
}

func (e *InputTooSmall) Error() string {
	return fmt.Sprintf("%s: input too small: expected %d bytes, got %d", e.When, e.Expected, e.Got)
}

// UnknownTag is returned when a descriptor/tag byte does not match any
// recognized value (e.g. an unrecognized Volume Descriptor Type, or a UDF
// Descriptor Tag Identifier outside the recognized set).
type UnknownTag struct {
	// At is the byte offset at which the tag was read.
	At int64
	// Value is the unrecognized tag byte.
	Value byte
}

func (e *UnknownTag) Error() string {
	return fmt.Sprintf("unknown tag 0x%02x at offset %d", e.Value, e.At)
}

// BadCharacter is returned when a field fails A-character/D-character/
// A1-character validation during strict (serialize-time) enforcement.
type BadCharacter struct {
	// Field names the field being validated.
	Field string
	// Offset is the index within Field's value of the first offending rune.
	Offset int
}

func (e *BadCharacter) Error() string {
	return fmt.Sprintf("%s: invalid character at offset %d", e.Field, e.Offset)
}

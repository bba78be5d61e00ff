// Package utils provides the primitive decoders, error types, and
// overflow-checked arithmetic shared by the header, token, tree, and
// address-translation layers.
package utils

import "fmt"

// Kind discriminates the error surface exposed to callers. Unlike a
// plain error string, a Kind can be matched with errors.Is without
// parsing messages.
type Kind string

// Error kinds. Names mirror the FDT specification's error surface.
const (
	InvalidMagic                Kind = "invalid_magic"
	InvalidHeader               Kind = "invalid_header"
	TruncatedBuffer             Kind = "truncated_buffer"
	UnexpectedEOF               Kind = "unexpected_eof"
	InvalidString               Kind = "invalid_string"
	InvalidToken                Kind = "invalid_token"
	TruncatedToken              Kind = "truncated_token"
	PropertyBeforeNode          Kind = "property_before_node"
	UnbalancedTree              Kind = "unbalanced_tree"
	InvalidReservation          Kind = "invalid_reservation"
	TypeMismatch                Kind = "type_mismatch"
	InvalidArrayLength          Kind = "invalid_array_length"
	InvalidAddressCells         Kind = "invalid_address_cells"
	InvalidSizeCells            Kind = "invalid_size_cells"
	InvalidRegFormat            Kind = "invalid_reg_format"
	InvalidRangesFormat         Kind = "invalid_ranges_format"
	AddressTranslationError     Kind = "address_translation_error"
	TranslationCycle            Kind = "translation_cycle"
	MaxTranslationDepthExceeded Kind = "max_translation_depth_exceeded"
	AddressOverflow             Kind = "address_overflow"
)

// Error implements error so a bare Kind can be returned and compared
// with errors.Is without allocating an *Error wrapper.
func (k Kind) Error() string { return string(k) }

// Error is a structured, wrapped error carrying the offending Kind, a
// short human-readable Context describing what was being decoded, and
// an optional underlying Cause, so callers can branch on error kind
// rather than just log a message.
type Error struct {
	Kind    Kind
	Context string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Context)
}

// Unwrap exposes Cause to errors.Unwrap/errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, SomeKind) match against the wrapped Kind
// directly, since Kind itself implements error.
func (e *Error) Is(target error) bool {
	if k, ok := target.(Kind); ok {
		return e.Kind == k
	}
	return false
}

// Wrap builds an *Error with the given kind, context, and cause. Cause
// may be nil for a leaf error.
func Wrap(kind Kind, context string, cause error) error {
	return &Error{Kind: kind, Context: context, Cause: cause}
}

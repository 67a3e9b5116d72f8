package format

import "errors"

var (
	// ErrParse indicates a format or order string did not match the
	// element grammar.
	ErrParse = errors.New("format: parse error")

	// ErrUnknownProperty indicates a name did not match any entry
	// (including aliases) in the property table.
	ErrUnknownProperty = errors.New("format: unknown property")
)

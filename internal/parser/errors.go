package parser

import "errors"

// Structural failures abort a parse regardless of strict mode: they mean the
// caller handed us something that is not a parseable document at all, as
// opposed to a document with bad rows (which become issues).
var (
	ErrEmptyFile         = errors.New("parser: empty file")
	ErrUnsupportedFormat = errors.New("parser: unsupported file format")
	ErrNoHeader          = errors.New("parser: no header row")
)

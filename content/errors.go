package content

import "errors"

// Sentinel errors for pipeline operations.
var (
	ErrEmptyContent = errors.New("message content cannot be empty")
	ErrParse        = errors.New("markdown parsing failed")
	ErrSuperseded   = errors.New("render superseded by a newer request")

	// Enrichment errors. These never abort a render; they are logged and
	// the affected node is left unrendered.
	ErrUnsupportedLanguage = errors.New("unsupported highlight language")
	ErrMathTooLarge        = errors.New("math source exceeds size limit")
	ErrMathExpansion       = errors.New("math macro expansion limit exceeded")
	ErrMathSyntax          = errors.New("malformed math source")
)

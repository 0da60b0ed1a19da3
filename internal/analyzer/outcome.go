package analyzer

import "errors"

// Outcome tags how a single frame analysis ended
type Outcome int

const (
	// OutcomeDecoded means a symbol was decoded and delivered
	OutcomeDecoded Outcome = iota
	// OutcomeNotFound means no symbol was present in the frame
	OutcomeNotFound
	// OutcomeUnreadable means a symbol was located but failed validation
	OutcomeUnreadable
	// OutcomeUnsupportedEncoding means the frame's pixel encoding was rejected
	OutcomeUnsupportedEncoding
	// OutcomeMalformedFrame means the luminance plane did not cover the frame
	OutcomeMalformedFrame
)

var outcomeNames = [...]string{
	OutcomeDecoded:             "decoded",
	OutcomeNotFound:            "not_found",
	OutcomeUnreadable:          "unreadable",
	OutcomeUnsupportedEncoding: "unsupported_encoding",
	OutcomeMalformedFrame:      "malformed_frame",
}

func (o Outcome) String() string {
	if int(o) >= 0 && int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// MarshalText encodes the outcome by name
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Dropped reports whether the frame produced no result
func (o Outcome) Dropped() bool {
	return o != OutcomeDecoded
}

var (
	// ErrUnsupportedEncoding indicates a frame whose encoding is outside the accepted set
	ErrUnsupportedEncoding = errors.New("unsupported pixel encoding")

	// ErrMalformedPlane indicates a luminance plane too small for the frame
	ErrMalformedPlane = errors.New("malformed luminance plane")
)

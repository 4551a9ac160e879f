// Package decode validates that a FLAC file's audio stream is readable end
// to end. This is the single source of truth for "is this file actually
// playable", independent of the structural probe.
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
)

// Validator confirms a file's full audio payload can be decoded.
type Validator interface {
	CanFullyDecode(path string) (ok bool, message string)
}

// StreamValidator decodes frame by frame with the mewkiz/flac decoder. One
// frame per iteration bounds memory regardless of file size.
type StreamValidator struct{}

// New returns the stream-backed validator.
func New() StreamValidator { return StreamValidator{} }

// CanFullyDecode parses every audio frame until EOF. Any decoder error,
// opening the stream or mid-stream, maps to ok=false with a diagnostic.
func (StreamValidator) CanFullyDecode(path string) (bool, string) {
	stream, err := flac.Open(path)
	if err != nil {
		return false, fmt.Sprintf("DECODE_FAIL: cannot open stream: %v", err)
	}
	defer stream.Close()

	frames := 0
	for {
		_, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			return true, fmt.Sprintf("OK (decoded %d frames)", frames)
		}
		if err != nil {
			return false, fmt.Sprintf("DECODE_FAIL: mid-stream after %d frames: %v", frames, err)
		}
		frames++
	}
}

// UnavailableMessage is reported when no decode engine is wired in; callers
// distinguish it from a mid-stream decode failure.
const UnavailableMessage = "decode engine unavailable"

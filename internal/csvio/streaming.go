package csvio

// streaming.go cleans CSV input on the fly without loading the file:
//
//   - a leading UTF-8 BOM (0xEF 0xBB 0xBF) written by Windows tools is dropped
//   - invalid UTF-8 bytes are replaced with U+FFFD
//
// Use NewSanitizingReader to apply both.

import (
	"bufio"
	"io"
	"unicode/utf8"
)

const bom = "\xef\xbb\xbf"

// SanitizingReader wraps an io.Reader, skipping a leading BOM and replacing
// invalid UTF-8 sequences with the Unicode replacement character.
type SanitizingReader struct {
	src        *bufio.Reader
	bomChecked bool

	// Encoded bytes of a rune that did not fit in the caller's buffer
	pending []byte
}

// NewSanitizingReader creates a new BOM-skipping, UTF-8 sanitizing reader.
func NewSanitizingReader(r io.Reader) *SanitizingReader {
	return &SanitizingReader{src: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (s *SanitizingReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if !s.bomChecked {
		s.bomChecked = true
		if head, err := s.src.Peek(len(bom)); err == nil && string(head) == bom {
			if _, err := s.src.Discard(len(bom)); err != nil {
				return 0, err
			}
		}
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]

	var buf [utf8.UTFMax]byte
	for n < len(p) {
		r, _, err := s.src.ReadRune()
		if err != nil {
			if n > 0 && err == io.EOF {
				return n, nil
			}
			return n, err
		}

		// Invalid bytes come back as (RuneError, 1) and encode as U+FFFD.
		w := utf8.EncodeRune(buf[:], r)
		copied := copy(p[n:], buf[:w])
		n += copied
		if copied < w {
			s.pending = append(s.pending[:0], buf[copied:w]...)
		}
	}
	return n, nil
}

// Package jsonl reads newline-delimited JSON streams with a bounded frame size.
package jsonl

import (
	"bufio"
	"bytes"
	"io"
)

// PrefixSize is how much of an oversized frame Scanner keeps.
const PrefixSize = 256

// Scanner splits r into lines no longer than a fixed limit. When a line
// exceeds the limit, Err returns bufio.ErrTooLong and Oversized returns the
// first PrefixSize bytes of the offending line.
type Scanner struct {
	*bufio.Scanner

	limit     int
	oversized []byte
}

// NewScanner returns a Scanner reading frames of at most limit bytes.
func NewScanner(r io.Reader, limit int) *Scanner {
	s := &Scanner{Scanner: bufio.NewScanner(r), limit: limit}
	s.Buffer(make([]byte, 0, min(64*1024, limit)), limit)
	s.Split(s.split)

	return s
}

// Limit returns the maximum frame size.
func (s *Scanner) Limit() int { return s.limit }

// Oversized returns the start of the line that stopped the scan, or nil.
func (s *Scanner) Oversized() []byte { return s.oversized }

func (s *Scanner) split(data []byte, atEOF bool) (int, []byte, error) {
	advance, token, err := bufio.ScanLines(data, atEOF)
	if advance == 0 && token == nil && err == nil && len(data) >= s.limit {
		s.oversized = bytes.Clone(data[:min(len(data), PrefixSize)])

		return 0, nil, bufio.ErrTooLong
	}

	return advance, token, err
}

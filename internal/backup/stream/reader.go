package stream

import (
	"archive/zip"
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"iter"
)

// ErrFileNotFound is returned by OpenFile when the archive lacks the member.
var ErrFileNotFound = errors.New("file not found in archive")

// maxLine caps one record. A profile's about text is the largest field.
const maxLine = 4 << 20

// OpenFile opens the member named path.
func OpenFile(zr *zip.Reader, path string) (io.ReadCloser, error) {
	for _, f := range zr.File {
		if f.Name == path {
			return f.Open()
		}
	}
	return nil, ErrFileNotFound
}

// Reader decodes records of type T from one archive member.
type Reader[T any] struct {
	rc    io.ReadCloser
	lines *bufio.Scanner
}

// NewReader takes ownership of rc; All closes it.
func NewReader[T any](rc io.ReadCloser) *Reader[T] {
	lines := bufio.NewScanner(rc)
	lines.Buffer(make([]byte, 0, 64<<10), maxLine)
	return &Reader[T]{rc: rc, lines: lines}
}

// All yields every record in order. A line that does not decode yields its
// error and reading goes on; a read error ends the sequence.
func (r *Reader[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer r.rc.Close()

		var zero T
		for r.lines.Scan() {
			line := r.lines.Bytes()
			if len(line) == 0 {
				continue
			}
			var rec T
			if err := json.Unmarshal(line, &rec); err != nil {
				if !yield(zero, err) {
					return
				}
				continue
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := r.lines.Err(); err != nil {
			yield(zero, err)
		}
	}
}

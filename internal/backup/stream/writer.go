// Package stream reads and writes JSON-lines members of a catalog archive.
// Each record is one line, so a damaged line costs one record, not the member.
package stream

import (
	"archive/zip"
	"encoding/json"
	"io"
)

// Writer appends records to one archive member.
type Writer struct {
	enc *json.Encoder
	n   int
}

// NewWriter adds the member path to zw and returns a Writer for it. The member
// stays open until the next Create on zw or zw.Close.
func NewWriter(zw *zip.Writer, path string) (*Writer, error) {
	member, err := zw.Create(path)
	if err != nil {
		return nil, err
	}
	return newWriter(member), nil
}

func newWriter(w io.Writer) *Writer {
	enc := json.NewEncoder(w)
	// Tag text and profile prose are stored verbatim.
	enc.SetEscapeHTML(false)
	return &Writer{enc: enc}
}

// Write appends rec as one line.
func (w *Writer) Write(rec any) error {
	if err := w.enc.Encode(rec); err != nil {
		return err
	}
	w.n++
	return nil
}

// Count is the number of records written, which the manifest records per member.
func (w *Writer) Count() int {
	return w.n
}

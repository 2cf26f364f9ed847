package wad2pic

import (
	"bytes"
	"io"
	"os"
)

// Cursor is the capability a container needs from its backing store: random
// access reads plus close. Satisfied by *os.File for on-disk WADs and by
// byteCursor for a WAD nested inside a PK3 entry.
type Cursor interface {
	io.Reader
	io.Seeker
	io.Closer
}

type byteCursor struct {
	*bytes.Reader
}

func (byteCursor) Close() error { return nil }

// NewByteCursor wraps an in-memory byte slice as a Cursor.
func NewByteCursor(data []byte) Cursor {
	return byteCursor{bytes.NewReader(data)}
}

// OpenFileCursor opens a file as a Cursor.
func OpenFileCursor(filename string) (Cursor, error) {
	return os.Open(filename)
}

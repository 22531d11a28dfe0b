package unattended

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"
)

const readChunkSize = 32 * 1024

// AwaitTranscript blocks until a file exists at path, checking every interval.
// It returns ctx.Err() if the context ends first.
func AwaitTranscript(ctx context.Context, path string, interval time.Duration) error {
	if interval < minPollInterval {
		interval = minPollInterval
	}
	for {
		_, err := os.Stat(path)
		if err == nil {
			return nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("unattended: await transcript: %w", err)
		}
		if err := sleepContext(ctx, interval); err != nil {
			return err
		}
	}
}

// Transcript reads an append-only session log from a cursor that only moves
// forward. Text written before OpenTranscript is never returned.
type Transcript struct {
	f       *os.File
	path    string
	offset  int64
	partial []byte
	buf     []byte
}

// OpenTranscript opens path and positions the cursor at its current end.
func OpenTranscript(path string) (*Transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unattended: open transcript: %w", err)
	}
	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("unattended: open transcript: %w", err)
	}
	return &Transcript{
		f:      f,
		path:   path,
		offset: offset,
		buf:    make([]byte, readChunkSize),
	}, nil
}

// Poll returns all text appended since the previous call, or "" if nothing is
// new. A multi-byte character cut at the end of the available bytes is kept
// for the next call. Invalid UTF-8 is dropped rather than reported.
func (t *Transcript) Poll() (string, error) {
	var data []byte
	for {
		n, err := t.f.Read(t.buf)
		if n > 0 {
			data = append(data, t.buf[:n]...)
			t.offset += int64(n)
		}
		if err == io.EOF || (err == nil && n < len(t.buf)) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("unattended: read transcript: %w", err)
		}
	}
	if len(data) == 0 {
		return "", nil
	}

	if len(t.partial) > 0 {
		data = append(t.partial, data...)
		t.partial = nil
	}
	cut := incompleteSuffix(data)
	if cut > 0 {
		t.partial = append([]byte(nil), data[len(data)-cut:]...)
		data = data[:len(data)-cut]
	}
	return strings.ToValidUTF8(string(data), ""), nil
}

// Offset returns the byte position of the read cursor.
func (t *Transcript) Offset() int64 {
	return t.offset
}

// Path returns the transcript file path.
func (t *Transcript) Path() string {
	return t.path
}

// Close releases the file handle.
func (t *Transcript) Close() error {
	return t.f.Close()
}

// incompleteSuffix returns how many trailing bytes of b form the start of a
// multi-byte UTF-8 character whose remaining bytes have not arrived yet.
func incompleteSuffix(b []byte) int {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		c := b[len(b)-i]
		if utf8.RuneStart(c) {
			if c >= utf8.RuneSelf && !utf8.FullRune(b[len(b)-i:]) {
				return i
			}
			return 0
		}
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package fileutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"unicode"

	"github.com/gofrs/flock"
	"github.com/oarkflow/json"
)

// jsonTailWindow is how far back from the end of the file the closing
// bracket is searched for.
const jsonTailWindow = 1024

// JSONAppender maintains a JSON array of T on disk, inserting new elements
// before the closing bracket. An advisory lock guards the file so separate
// runs can share one report array.
type JSONAppender[T any] struct {
	file     *os.File
	fileLock *flock.Flock
	mu       sync.Mutex
}

// NewJSONAppender opens or creates the array file. Without appendMode any
// existing content is discarded and the array starts empty.
func NewJSONAppender[T any](filePath string, appendMode bool) (*JSONAppender[T], error) {
	f, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("open JSON file: %w", err)
	}
	if !appendMode {
		if err := f.Truncate(0); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("truncate JSON file: %w", err)
		}
	}
	ja := &JSONAppender[T]{file: f, fileLock: flock.New(filePath + ".lock")}
	if err := ja.initialize(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return ja, nil
}

// initialize writes an empty array into a fresh file, or verifies an
// existing one has bracket delimiters where they belong.
func (ja *JSONAppender[T]) initialize() error {
	fi, err := ja.file.Stat()
	if err != nil {
		return err
	}
	if fi.Size() == 0 {
		if _, err := ja.file.WriteAt([]byte("[\n]\n"), 0); err != nil {
			return err
		}
		return ja.file.Sync()
	}
	head := make([]byte, 1)
	if _, err := ja.file.ReadAt(head, 0); err != nil && err != io.EOF {
		return err
	}
	if head[0] != '[' {
		return errors.New("existing file is not a JSON array")
	}
	if _, _, err := ja.tail(fi.Size()); err != nil {
		return err
	}
	return nil
}

// tail locates the final closing bracket and the last content byte before
// it, returning their absolute offsets.
func (ja *JSONAppender[T]) tail(size int64) (contentEnd int64, lastByte byte, err error) {
	window := int64(jsonTailWindow)
	if size < window {
		window = size
	}
	offset := size - window
	buf := make([]byte, window)
	if _, err := ja.file.ReadAt(buf, offset); err != nil && err != io.EOF {
		return 0, 0, err
	}
	bracket := bytes.LastIndexByte(buf, ']')
	if bracket == -1 {
		return 0, 0, errors.New("JSON array has no closing bracket")
	}
	pos := bracket - 1
	for pos >= 0 && unicode.IsSpace(rune(buf[pos])) {
		pos--
	}
	if pos < 0 {
		return 0, 0, errors.New("JSON array has no content before the closing bracket")
	}
	return offset + int64(pos) + 1, buf[pos], nil
}

// Append adds one element to the array.
func (ja *JSONAppender[T]) Append(element T) error {
	return ja.AppendBatch([]T{element})
}

// AppendBatch adds elements to the array, keeping the file valid JSON after
// every call.
func (ja *JSONAppender[T]) AppendBatch(elements []T) error {
	if len(elements) == 0 {
		return nil
	}
	ja.mu.Lock()
	defer ja.mu.Unlock()
	if err := ja.fileLock.Lock(); err != nil {
		return err
	}
	defer func() {
		_ = ja.fileLock.Unlock()
	}()

	fi, err := ja.file.Stat()
	if err != nil {
		return err
	}
	contentEnd, lastByte, err := ja.tail(fi.Size())
	if err != nil {
		return err
	}

	out := []byte("\n  ")
	if lastByte != '[' {
		out = []byte(",\n  ")
	}
	for i, element := range elements {
		encoded, err := json.Marshal(element)
		if err != nil {
			return err
		}
		if i > 0 {
			out = append(out, []byte(",\n  ")...)
		}
		out = append(out, encoded...)
	}
	out = append(out, []byte("\n]\n")...)

	if err := ja.file.Truncate(contentEnd); err != nil {
		return err
	}
	if _, err := ja.file.WriteAt(out, contentEnd); err != nil {
		return err
	}
	return ja.file.Sync()
}

// Close releases the underlying file.
func (ja *JSONAppender[T]) Close() error {
	ja.mu.Lock()
	defer ja.mu.Unlock()
	return ja.file.Close()
}

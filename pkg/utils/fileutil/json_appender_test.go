package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oarkflow/json"
)

func readArray(t *testing.T, path string) []testRecord {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var out []testRecord
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return out
}

func TestJSONAppenderKeepsArrayValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	ja, err := NewJSONAppender[testRecord](path, false)
	if err != nil {
		t.Fatalf("NewJSONAppender: %v", err)
	}
	if err := ja.AppendBatch([]testRecord{{"a", "1"}, {"b", "2"}}); err != nil {
		t.Fatalf("AppendBatch: %v", err)
	}
	if err := ja.Append(testRecord{"c", "3"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := ja.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got := readArray(t, path)
	if len(got) != 3 || got[0].Name != "a" || got[2].Value != "3" {
		t.Fatalf("unexpected content: %+v", got)
	}
}

func TestJSONAppenderAppendMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	ja, err := NewJSONAppender[testRecord](path, false)
	if err != nil {
		t.Fatalf("NewJSONAppender: %v", err)
	}
	if err := ja.Append(testRecord{"a", "1"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	ja.Close()

	ja, err = NewJSONAppender[testRecord](path, true)
	if err != nil {
		t.Fatalf("reopen append: %v", err)
	}
	if err := ja.Append(testRecord{"b", "2"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	ja.Close()

	if got := readArray(t, path); len(got) != 2 || got[1].Name != "b" {
		t.Fatalf("expected both runs in one array, got %+v", got)
	}

	ja, err = NewJSONAppender[testRecord](path, false)
	if err != nil {
		t.Fatalf("reopen truncate: %v", err)
	}
	if err := ja.Append(testRecord{"c", "3"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	ja.Close()

	if got := readArray(t, path); len(got) != 1 || got[0].Name != "c" {
		t.Fatalf("expected truncation without append mode, got %+v", got)
	}
}

func TestNewAppenderPicksFormatFromExtension(t *testing.T) {
	dir := t.TempDir()
	ja, err := NewAppender[testRecord](filepath.Join(dir, "out.json"), false)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	ja.Close()
	ca, err := NewAppender[testRecord](filepath.Join(dir, "out.csv"), false)
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	ca.Close()
	if _, err := NewAppender[testRecord](filepath.Join(dir, "out.txt"), false); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

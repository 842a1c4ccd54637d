package pipeline

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oarkflow/remit/pkg/x12"
)

// ProcessedExt marks files a sweep has already handled. Discover skips
// them so they are never picked up a second time.
const ProcessedExt = ".processed"

var remitExtensions = map[string]bool{
	".835": true,
	".txt": true,
	".edi": true,
	".x12": true,
}

// Discover expands each input into remittance file paths. Inputs may be
// plain files, glob patterns, or directories (walked recursively). Files
// with an unrecognized extension are kept only when their content starts
// with an ISA envelope.
func Discover(inputs []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}

	for _, input := range inputs {
		info, err := os.Stat(input)
		switch {
		case err == nil && info.IsDir():
			err := filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && isRemitFile(path) {
					add(path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		case err == nil:
			add(input)
		default:
			matches, err := filepath.Glob(input)
			if err != nil {
				return nil, err
			}
			for _, m := range matches {
				if info, err := os.Stat(m); err == nil && !info.IsDir() && isRemitFile(m) {
					add(m)
				}
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func isRemitFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ProcessedExt {
		return false
	}
	if remitExtensions[ext] {
		return true
	}
	return sniffISA(path)
}

// sniffISA reads just enough of the file to check for an interchange
// header.
func sniffISA(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	buf := make([]byte, 106)
	n, _ := f.Read(buf)
	if n < 106 {
		return false
	}
	_, err = x12.Detect(buf[:n])
	return err == nil
}

// Package redact masks patient-identifying values in raw 835 content so
// sample files can be shared for troubleshooting. Delimiters, segment
// order and element counts are preserved; only letter and digit bytes in
// protected elements change.
package redact

import (
	"strings"

	"github.com/oarkflow/remit/pkg/x12"
)

// entity codes whose NM1 name elements carry patient identity
var protectedEntities = map[string]bool{
	"QC": true,
	"IL": true,
}

// REF qualifiers carrying member identifiers
var protectedRefs = map[string]bool{
	"SY": true,
	"1W": true,
}

// Redact rewrites protected elements in an 835 file and returns the
// masked copy. Input that does not look like an interchange is returned
// unchanged.
func Redact(data []byte) []byte {
	delims, err := x12.Detect(data)
	if err != nil {
		return data
	}

	segments := strings.Split(string(data), string(delims.Terminator))
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		trimmed := strings.TrimLeft(seg, "\r\n ")
		if strings.TrimSpace(trimmed) == "" {
			continue
		}
		prefix := seg[:len(seg)-len(trimmed)]
		out = append(out, prefix+redactSegment(trimmed, delims.Element))
	}
	joined := strings.Join(out, string(delims.Terminator))
	return []byte(joined + string(delims.Terminator))
}

func redactSegment(seg string, elementSep byte) string {
	elements := strings.Split(seg, string(elementSep))
	switch elements[0] {
	case "NM1":
		if len(elements) > 3 && protectedEntities[elements[1]] {
			for i := 3; i < len(elements) && i < 8; i++ {
				elements[i] = maskValue(elements[i])
			}
			if len(elements) > 9 {
				elements[9] = maskValue(elements[9])
			}
		}
	case "REF":
		if len(elements) > 2 && protectedRefs[elements[1]] {
			elements[2] = maskValue(elements[2])
		}
	}
	return strings.Join(elements, string(elementSep))
}

// maskValue keeps length and punctuation, replacing letters with X and
// digits with 1.
func maskValue(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
			b[i] = 'X'
		case c >= '0' && c <= '9':
			b[i] = '1'
		}
	}
	return string(b)
}

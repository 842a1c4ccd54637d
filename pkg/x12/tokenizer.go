package x12

import (
	"fmt"
	"strings"

	"github.com/oarkflow/errors"
)

// Delimiters holds the separator characters declared by an ISA envelope.
type Delimiters struct {
	Element    byte
	Component  byte
	Repetition byte
	Terminator byte
}

// Segment is a single X12 segment. Elements[0] is the first element after
// the segment ID; empty elements are preserved as "".
type Segment struct {
	ID       string
	Elements []string
}

// Element returns the element at 1-based position pos, or "" when absent.
func (s Segment) Element(pos int) string {
	if pos < 1 || pos > len(s.Elements) {
		return ""
	}
	return s.Elements[pos-1]
}

// Interchange is the tokenized form of a single 835 file.
type Interchange struct {
	Delimiters Delimiters
	Segments   []Segment
}

const isaMinLength = 106

// Detect reads the delimiter characters from a fixed-width ISA segment.
// The element separator sits at byte 3, the repetition separator at byte 82,
// the component separator at byte 104 and the segment terminator at byte 105. A missing or whitespace terminator
// falls back to '~'.
func Detect(data []byte) (Delimiters, error) {
	if len(data) < isaMinLength {
		return Delimiters{}, fmt.Errorf("input too short for ISA envelope: %d bytes", len(data))
	}
	if string(data[:3]) != "ISA" {
		return Delimiters{}, errors.New("input does not start with ISA segment")
	}
	d := Delimiters{
		Element:    data[3],
		Component:  data[104],
		Repetition: data[82],
		Terminator: data[105],
	}
	if d.Terminator == '\r' || d.Terminator == '\n' || d.Terminator == ' ' || d.Terminator == 0 {
		d.Terminator = '~'
	}
	return d, nil
}

// Tokenize splits raw 835 bytes into segments using the delimiters declared
// by the ISA envelope. Newlines around segment boundaries are stripped and a
// trailing segment without a terminator is still emitted.
func Tokenize(data []byte) (*Interchange, error) {
	d, err := Detect(data)
	if err != nil {
		return nil, err
	}
	raw := strings.Split(string(data), string(d.Terminator))
	segments := make([]Segment, 0, len(raw))
	for _, part := range raw {
		part = strings.Trim(part, "\r\n \t")
		if part == "" {
			continue
		}
		fields := strings.Split(part, string(d.Element))
		seg := Segment{ID: fields[0]}
		if len(fields) > 1 {
			seg.Elements = make([]string, len(fields)-1)
			for i, f := range fields[1:] {
				seg.Elements[i] = strings.TrimRight(f, " ")
			}
		}
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		return nil, errors.New("no segments found")
	}
	return &Interchange{Delimiters: d, Segments: segments}, nil
}

// SplitComposite splits a composite element on the interchange's component
// separator. A value without a separator comes back as a single component.
func (ic *Interchange) SplitComposite(value string) []string {
	return strings.Split(value, string(ic.Delimiters.Component))
}

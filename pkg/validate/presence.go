package validate

import "sort"

// presenceTracker records qualifiers seen in the data that no column maps,
// feeding the coverage section of the report.
type presenceTracker struct {
	unmapped map[string]map[string]struct{}
}

func newPresenceTracker() *presenceTracker {
	return &presenceTracker{unmapped: make(map[string]map[string]struct{})}
}

func (p *presenceTracker) observe(segment, qualifier string, known map[string]string) {
	if qualifier == "" {
		return
	}
	if _, ok := known[qualifier]; ok {
		return
	}
	if p.unmapped[segment] == nil {
		p.unmapped[segment] = make(map[string]struct{})
	}
	p.unmapped[segment][qualifier] = struct{}{}
}

func (p *presenceTracker) coverage() map[string][]string {
	if len(p.unmapped) == 0 {
		return nil
	}
	out := make(map[string][]string, len(p.unmapped))
	for seg, quals := range p.unmapped {
		list := make([]string, 0, len(quals))
		for q := range quals {
			list = append(list, q)
		}
		sort.Strings(list)
		out[seg] = list
	}
	return out
}

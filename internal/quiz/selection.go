package quiz

import "sort"

// Selection is a sorted set of option indices. A nil Selection means the
// question has not been answered.
type Selection []int

func NewSelection(indices ...int) Selection {
	var sel Selection
	for _, idx := range indices {
		if !sel.Contains(idx) {
			sel = sel.Toggle(idx)
		}
	}
	return sel
}

func (s Selection) Contains(idx int) bool {
	i := sort.SearchInts(s, idx)
	return i < len(s) && s[i] == idx
}

// Toggle returns a new Selection with idx added if absent or removed if
// present. The receiver is never modified.
func (s Selection) Toggle(idx int) Selection {
	i := sort.SearchInts(s, idx)
	if i < len(s) && s[i] == idx {
		out := make(Selection, 0, len(s)-1)
		out = append(out, s[:i]...)
		return append(out, s[i+1:]...)
	}
	out := make(Selection, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, idx)
	return append(out, s[i:]...)
}

func (s Selection) Equal(other Selection) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

func (s Selection) Clone() Selection {
	if s == nil {
		return nil
	}
	return append(Selection(nil), s...)
}

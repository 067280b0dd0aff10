package question

import (
	"encoding/json"
	"strconv"
	"strings"
)

// SideTable is a position-keyed table kept parallel to a Pool (difficulty or
// answer key). Keys are 1-based pool positions and must stay within
// 1..len(pool); RemoveAt is the only way to shift them.
type SideTable map[int]string

// DecodeSideTable parses a stored table blob. Malformed input yields an empty
// table; keys that are not positive integers are dropped.
func DecodeSideTable(blob string) SideTable {
	t := SideTable{}
	if strings.TrimSpace(blob) == "" {
		return t
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return t
	}
	for k, v := range raw {
		pos, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil || pos < 1 || v == nil {
			continue
		}
		t[pos] = Stringify(v)
	}
	return t
}

// Encode serializes the table as a JSON object with stringified keys.
func (t SideTable) Encode() (string, error) {
	out := make(map[string]string, len(t))
	for pos, v := range t {
		out[strconv.Itoa(pos)] = v
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Get returns the value stored at pos, or fallback when absent.
func (t SideTable) Get(pos int, fallback string) string {
	if v, ok := t[pos]; ok {
		return v
	}
	return fallback
}

// Clone copies the table.
func (t SideTable) Clone() SideTable {
	out := make(SideTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// RemoveAt returns the table that results from deleting position k out of a
// pool of size n: entries above k shift down by one, the entry at k and any
// key outside 1..n are dropped.
func (t SideTable) RemoveAt(k, n int) SideTable {
	out := make(SideTable, len(t))
	for pos, v := range t {
		switch {
		case pos < 1 || pos > n || pos == k:
			continue
		case pos < k:
			out[pos] = v
		default:
			out[pos-1] = v
		}
	}
	return out
}

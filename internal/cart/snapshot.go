package cart

import (
	"encoding/json"
	"errors"
	"fmt"
)

var errBadSnapshot = errors.New("bad cart snapshot")

// Encode serializes entries the way they are stored in the slot.
// An empty cart is written as "[]", never "null".
func Encode(entries []Entry) (string, error) {
	if entries == nil {
		entries = []Entry{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode parses a slot value. Entries with amount < 1 or a repeated id make
// the whole snapshot invalid.
func Decode(raw string) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadSnapshot, err)
	}

	seen := make(map[int]struct{}, len(entries))
	for _, e := range entries {
		if e.Amount < 1 {
			return nil, fmt.Errorf("%w: product %d has amount %d", errBadSnapshot, e.ID, e.Amount)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate product %d", errBadSnapshot, e.ID)
		}
		seen[e.ID] = struct{}{}
	}

	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

func clone(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

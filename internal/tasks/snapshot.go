package tasks

import (
	"encoding/json"
	"fmt"
	"strings"

	"Tasklist/internal/domain"
)

// EncodeSnapshot serializes the live collection as a JSON array in collection order.
func EncodeSnapshot(list []domain.Task) ([]byte, error) {
	if list == nil {
		list = []domain.Task{}
	}
	return json.Marshal(list)
}

// DecodeSnapshot parses a snapshot and checks the collection invariants:
// unique ids and non-blank labels.
func DecodeSnapshot(data []byte) ([]domain.Task, error) {
	var list []domain.Task
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	seen := make(map[int64]struct{}, len(list))
	for i := range list {
		t := &list[i]
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrCorruptSnapshot, t.ID)
		}
		seen[t.ID] = struct{}{}

		t.Label = strings.TrimSpace(t.Label)
		if t.Label == "" {
			return nil, fmt.Errorf("%w: task %d has an empty label", ErrCorruptSnapshot, t.ID)
		}
		t.Category = normalizeCategory(t.Category)
	}
	if list == nil {
		list = []domain.Task{}
	}
	return list, nil
}

func normalizeCategory(c string) string {
	c = strings.TrimSpace(c)
	if c == "" {
		return domain.CategoryGeneral
	}
	return c
}

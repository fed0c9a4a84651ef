package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{"Low", PriorityLow, false},
		{"medium", PriorityMedium, false},
		{" HIGH ", PriorityHigh, false},
		{"Urgent", PriorityUrgent, false},
		{"", 0, true},
		{"critical", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePriority(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePriority(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrUnknownPriority) {
			t.Errorf("ParsePriority(%q) err = %v, want ErrUnknownPriority", tt.in, err)
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParsePriority(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPriorityOrder(t *testing.T) {
	if !(PriorityLow < PriorityMedium && PriorityMedium < PriorityHigh && PriorityHigh < PriorityUrgent) {
		t.Fatal("priorities are not ordered Low < Medium < High < Urgent")
	}
}

func TestPriorityJSON(t *testing.T) {
	b, err := json.Marshal(Task{ID: 7, Label: "x", Category: "Work", Priority: PriorityHigh})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":7,"label":"x","checked":false,"category":"Work","priority":"High"}`
	if string(b) != want {
		t.Errorf("json = %s, want %s", b, want)
	}

	var p Priority
	if err := json.Unmarshal([]byte(`"Bogus"`), &p); err == nil {
		t.Error("expected error for unknown priority")
	}
	if _, err := json.Marshal(Priority(42)); err == nil {
		t.Error("expected error marshalling invalid priority")
	}
}

func TestFilterMatch(t *testing.T) {
	high := PriorityHigh
	task := Task{ID: 1, Label: "A", Category: "Work", Priority: PriorityHigh}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"all", Filter{}, true},
		{"priority match", Filter{Priority: &high}, true},
		{"category match", Filter{Category: "Work"}, true},
		{"both match", Filter{Priority: &high, Category: "Work"}, true},
		{"category mismatch", Filter{Priority: &high, Category: "Personal"}, false},
	}
	for _, tt := range tests {
		if got := tt.filter.Match(task); got != tt.want {
			t.Errorf("%s: Match = %v, want %v", tt.name, got, tt.want)
		}
	}

	low := PriorityLow
	if (Filter{Priority: &low}).Match(task) {
		t.Error("low filter matched high task")
	}
	if !(Filter{}).IsZero() || (Filter{Category: "Work"}).IsZero() {
		t.Error("IsZero mismatch")
	}
}

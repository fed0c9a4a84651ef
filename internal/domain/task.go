package domain

// Task is the only persisted entity. Label is always trimmed and non-empty.
type Task struct {
	ID       int64    `json:"id"`
	Label    string   `json:"label"`
	Checked  bool     `json:"checked"`
	Category string   `json:"category"`
	Priority Priority `json:"priority"`
}

// Categories offered by default. Any other non-empty string is accepted as well.
const (
	CategoryGeneral  = "General"
	CategoryWork     = "Work"
	CategoryPersonal = "Personal"
	CategoryUrgent   = "Urgent"
)

// DefaultCategories returns the categories offered to the user, in display order.
func DefaultCategories() []string {
	return []string{CategoryGeneral, CategoryWork, CategoryPersonal, CategoryUrgent}
}

// TaskPatch is a partial edit. Nil fields are left unchanged.
type TaskPatch struct {
	Label    *string
	Category *string
	Priority *Priority
}

// Filter selects visible tasks. Nil Priority and empty Category mean "All".
type Filter struct {
	Priority *Priority
	Category string
}

// Match reports whether t passes both criteria.
func (f Filter) Match(t Task) bool {
	if f.Priority != nil && *f.Priority != t.Priority {
		return false
	}
	if f.Category != "" && f.Category != t.Category {
		return false
	}
	return true
}

// IsZero reports whether the filter lets every task through.
func (f Filter) IsZero() bool {
	return f.Priority == nil && f.Category == ""
}

package dto

import (
	"fmt"
	"strings"
	"time"

	"Tasklist/internal/domain"
)

// FilterAll selects every priority or category.
const FilterAll = "All"

type CreateTaskRequest struct {
	Label    string `json:"label" binding:"required,max=500"`
	Category string `json:"category" binding:"max=60"`
	Priority string `json:"priority"` // empty = Low
}

type UpdateTaskRequest struct {
	Label    *string `json:"label" binding:"omitempty,max=500"`
	Category *string `json:"category" binding:"omitempty,max=60"`
	Priority *string `json:"priority"`
}

type FiltersRequest struct {
	Priority string `json:"priority"` // "" or "All" = any
	Category string `json:"category"` // "" or "All" = any
}

type TaskResponse struct {
	ID       int64  `json:"id"`
	Label    string `json:"label"`
	Checked  bool   `json:"checked"`
	Category string `json:"category"`
	Priority string `json:"priority"`
}

type ListTasksResponse struct {
	Items   []TaskResponse  `json:"items"`
	Filters FiltersResponse `json:"filters"`
}

type PendingResponse struct {
	Task         TaskResponse `json:"task"`
	UndoDeadline time.Time    `json:"undo_deadline"`
}

type FiltersResponse struct {
	Priority string `json:"priority"`
	Category string `json:"category"`
}

// ParsePriority maps "" to Low.
func ParsePriority(s string) (domain.Priority, error) {
	if strings.TrimSpace(s) == "" {
		return domain.PriorityLow, nil
	}
	return domain.ParsePriority(s)
}

// Filter converts the request; "All" and "" clear a criterion.
func (r FiltersRequest) Filter() (domain.Filter, error) {
	var f domain.Filter
	if p := strings.TrimSpace(r.Priority); p != "" && !strings.EqualFold(p, FilterAll) {
		v, err := domain.ParsePriority(p)
		if err != nil {
			return domain.Filter{}, fmt.Errorf("priority: %w", err)
		}
		f.Priority = &v
	}
	if c := strings.TrimSpace(r.Category); c != "" && !strings.EqualFold(c, FilterAll) {
		f.Category = c
	}
	return f, nil
}

// Patch converts the request into a domain patch.
func (r UpdateTaskRequest) Patch() (domain.TaskPatch, error) {
	p := domain.TaskPatch{Label: r.Label, Category: r.Category}
	if r.Priority != nil {
		v, err := domain.ParsePriority(*r.Priority)
		if err != nil {
			return domain.TaskPatch{}, fmt.Errorf("priority: %w", err)
		}
		p.Priority = &v
	}
	return p, nil
}

func NewTaskResponse(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:       t.ID,
		Label:    t.Label,
		Checked:  t.Checked,
		Category: t.Category,
		Priority: t.Priority.String(),
	}
}

func NewTaskResponses(list []domain.Task) []TaskResponse {
	out := make([]TaskResponse, len(list))
	for i := range list {
		out[i] = NewTaskResponse(list[i])
	}
	return out
}

func NewFiltersResponse(f domain.Filter) FiltersResponse {
	out := FiltersResponse{Priority: FilterAll, Category: FilterAll}
	if f.Priority != nil {
		out.Priority = f.Priority.String()
	}
	if f.Category != "" {
		out.Category = f.Category
	}
	return out
}

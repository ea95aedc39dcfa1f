package model

import "time"

// Task status values. Other free-form values are stored as given.
const (
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
)

// Task is an actionable item, usually derived from an email.
type Task struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	EmailID     *string   `json:"email_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	AssignedTo  *string   `json:"assigned_to"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Email       *EmailRef `json:"email,omitempty"`
}

// TaskSummary is the restricted task projection embedded in email responses.
type TaskSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// EmailRef is the email projection joined onto task listings.
type EmailRef struct {
	Subject string `json:"subject"`
	Sender  string `json:"sender"`
}

// TaskFilter contains optional filters for listing tasks.
type TaskFilter struct {
	TenantID  string
	EmailID   string
	UserID    string
	Priority  string
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}

// TaskUpdate holds the fields a caller may change. Nil means unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	Priority    *string
	Status      *string
	AssignedTo  *string
}

// IsEmpty returns true if no field is set.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Priority == nil &&
		u.Status == nil && u.AssignedTo == nil
}

// Pagination describes one page of a listing.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes the page count for total items.
func NewPagination(total, page, pageSize int) Pagination {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return Pagination{Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages}
}

// TaskPage is one page of tasks.
type TaskPage struct {
	Data       []Task     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

package model

import "time"

// Email is an ingested message together with its classification result.
// Emails are immutable once stored.
type Email struct {
	ID        string        `json:"id"`
	TenantID  string        `json:"tenant_id"`
	Subject   string        `json:"subject"`
	Body      string        `json:"body"`
	Sender    string        `json:"sender"`
	Recipient string        `json:"recipient"`
	Priority  string        `json:"priority"`
	Category  string        `json:"category"`
	Labels    []string      `json:"labels"`
	CreatedAt time.Time     `json:"created_at"`
	Tasks     []TaskSummary `json:"tasks"`
}

// NewEmail holds the fields needed to ingest one email.
type NewEmail struct {
	TenantID  string
	Subject   string
	Body      string
	Sender    string
	Recipient string
}

// Classification is the classifier's verdict for one email.
type Classification struct {
	Priority       string          `json:"priority"`
	Category       string          `json:"category"`
	Labels         []string        `json:"labels,omitempty"`
	SuggestedTasks []SuggestedTask `json:"suggestedTasks,omitempty"`
}

// SuggestedTask is a task proposed by the classifier.
type SuggestedTask struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// EmailFilter contains optional filters for listing emails.
// Zero values mean no constraint.
type EmailFilter struct {
	TenantID  string
	Category  string
	Priority  string
	StartDate *time.Time
	EndDate   *time.Time
}

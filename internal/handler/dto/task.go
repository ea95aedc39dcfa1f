package dto

import (
	"bytes"
	"encoding/json"
)

// UpdateTaskRequest represents the request body for updating a task.
// Absent fields are left unchanged.
type UpdateTaskRequest struct {
	ID          string         `json:"id"`
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Priority    *string        `json:"priority,omitempty"`
	Status      *string        `json:"status,omitempty"`
	AssignedTo  NullableString `json:"assigned_to"`
}

// DeleteTaskRequest represents the request body for deleting a task.
type DeleteTaskRequest struct {
	ID string `json:"id"`
}

// NullableString tells an absent field apart from an explicit null.
type NullableString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON is only called when the field is present.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// Update returns the value to store: nil for unchanged, "" for cleared.
func (n NullableString) Update() *string {
	if !n.Set {
		return nil
	}
	if n.Value == nil {
		empty := ""
		return &empty
	}
	return n.Value
}

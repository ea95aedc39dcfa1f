// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

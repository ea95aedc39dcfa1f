package dto

// CreateEmailRequest represents the request body for ingesting an email.
type CreateEmailRequest struct {
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
}

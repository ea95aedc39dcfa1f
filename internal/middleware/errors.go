package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/mailtriage/mailtriage/internal/apperr"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// WriteError writes err as a JSON error body with the status of its kind.
// Untagged errors are reported as internal errors without their message.
func WriteError(w http.ResponseWriter, err error) {
	e := apperr.As(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Kind.HTTPStatus())
	_ = json.NewEncoder(w).Encode(errorBody{Error: e.PublicMessage(), Code: e.Kind.Code()})
}

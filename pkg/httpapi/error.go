package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/govkit/records-sdk/pkg/serrors"
)

// ErrorEnvelope is the uniform error body of the access API. Details maps
// field names to the validation rule they broke.
type ErrorEnvelope struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, details map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// WriteCoded renders a coded guard error with its own code and message.
func WriteCoded(w http.ResponseWriter, status int, err *serrors.Base) error {
	return WriteError(w, status, err.Code, err.Message, nil)
}

package common

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/leapstack-labs/leapadmin/pkg/core"
)

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error      string `json:"error"`
	Field      string `json:"field,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	Statement  string `json:"statement,omitempty"`
	Feature    string `json:"feature,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case core.IsValidation(err):
		return http.StatusBadRequest
	case core.IsCapability(err):
		return http.StatusNotImplemented
	case core.IsDriver(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as an ErrorResponse.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := StatusFor(err)
	resp := ErrorResponse{Error: err.Error()}

	var ve *core.ValidationError
	var ce *core.CapabilityError
	var de *core.DriverError
	switch {
	case errors.As(err, &ve):
		resp.Error = ve.Reason
		resp.Field = ve.Field
		resp.Suggestion = ve.Suggestion
	case errors.As(err, &ce):
		resp.Feature = string(ce.Feature)
	case errors.As(err, &de):
		resp.Statement = de.Statement
	}

	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", slog.Int("status", status), slog.String("error", err.Error()))
	}
	WriteJSON(w, status, resp)
}

// DecodeJSON reads a JSON request body into v. Malformed input is a ValidationError.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return core.Invalid("body", "malformed JSON: "+err.Error())
	}
	return nil
}

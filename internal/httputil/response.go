package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/R3E-Network/xrpl_service_layer/pkg/logger"
)

// maxRequestBody bounds decoded request bodies.
const maxRequestBody = 1 << 20

// Envelope is the response body used by every /api route.
type Envelope struct {
	Success bool                   `json:"success"`
	Result  interface{}            `json:"result,omitempty"`
	Message string                 `json:"message,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	TraceID string                 `json:"trace_id,omitempty"`
}

// DecodeJSON decodes a bounded request body, rejecting unknown fields.
func DecodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(io.LimitReader(body, maxRequestBody))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// WriteJSON writes data with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a success envelope around result.
func WriteSuccess(w http.ResponseWriter, status int, result interface{}) {
	WriteJSON(w, status, Envelope{Success: true, Result: result})
}

// WriteErrorResponse writes a failure envelope tagged with the request trace ID.
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	env := Envelope{
		Success: false,
		Error:   message,
		Code:    code,
		Details: details,
	}
	if r != nil {
		env.TraceID = logger.GetTraceID(r.Context())
	}
	WriteJSON(w, status, env)
}

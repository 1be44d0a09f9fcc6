// Package api exposes spec §6's core-exposed operations over HTTP via
// chi, illustrative only — authentication/authorization is explicitly
// out of scope (spec §1's non-goal on auth).
package api

import (
	"encoding/json"
	"net/http"

	"github.com/r3e-network/research-orchestrator/pkg/logging"
	"github.com/r3e-network/research-orchestrator/pkg/orcherrors"
)

// ErrorResponse is the JSON envelope every failed request receives,
// grounded on the teacher's httputil.ErrorResponse shape.
type ErrorResponse struct {
	Kind    string      `json:"kind"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps an orcherrors.Error's Kind to its HTTP status (spec
// §7's error-kind table) and writes the JSON envelope; any other error
// is treated as Internal.
func writeError(w http.ResponseWriter, log *logging.Logger, err error) {
	status := orcherrors.HTTPStatus(err)
	kind := "internal"
	var details interface{}
	if oe := orcherrors.As(err); oe != nil {
		kind = string(oe.Kind)
		details = oe.Details
	}
	if log != nil {
		log.WithError(err).Warn("request failed")
	}
	writeJSON(w, status, ErrorResponse{Kind: kind, Message: err.Error(), Details: details})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Kind: "invalid_argument", Message: "invalid request body"})
		return false
	}
	return true
}

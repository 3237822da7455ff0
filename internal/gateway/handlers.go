package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// HealthResponse is returned by health endpoints. The public HTTP endpoint
// only populates Status; the authenticated RPC handler populates all fields.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Clients  int    `json:"clients,omitempty"`
	Channels int    `json:"channels,omitempty"`
	UptimeMs int64  `json:"uptimeMs,omitempty"`
}

// apiError is a failure as the peer sees it: a wire code, a message and the
// status used when it goes out over plain HTTP.
type apiError struct {
	status int
	shape  ErrorShape
}

func (e *apiError) Error() string { return e.shape.Code + ": " + e.shape.Message }

func newAPIError(status int, code, msg string) *apiError {
	return &apiError{status: status, shape: ErrorShape{Code: code, Message: msg}}
}

func invalidParams(msg string) *apiError {
	return newAPIError(http.StatusBadRequest, "invalid_params", msg)
}

func forbidden(msg string) *apiError { return newAPIError(http.StatusForbidden, "forbidden", msg) }
func notFound(msg string) *apiError  { return newAPIError(http.StatusNotFound, "not_found", msg) }

func storeError(err error) *apiError {
	return newAPIError(http.StatusInternalServerError, "store_error", err.Error())
}

var errNoAssistant = newAPIError(http.StatusServiceUnavailable, "unavailable", "assistant not configured")

// toAPIError keeps typed failures and reports anything else as internal.
func toAPIError(err error) *apiError {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae
	}
	return newAPIError(http.StatusInternalServerError, "internal", err.Error())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	ae := toAPIError(err)
	writeJSON(w, ae.status, ae.shape)
}

// RequestHandler serves one RPC method. The returned payload, or error,
// becomes the response frame.
type RequestHandler func(rc *RequestContext) (any, error)

// RequestContext is what a handler knows about the call.
type RequestContext struct {
	Ctx    context.Context
	Client *Client
	Frame  Frame
	Server *Server
}

// Params decodes the request params into target. Absent params leave
// target untouched.
func (rc *RequestContext) Params(target any) error {
	if len(rc.Frame.Params) == 0 {
		return nil
	}
	if err := json.Unmarshal(rc.Frame.Params, target); err != nil {
		return invalidParams(err.Error())
	}
	return nil
}

// reply writes a handler's outcome back to the caller.
func (rc *RequestContext) reply(payload any, err error) {
	if err != nil {
		err = rc.Client.RespondError(rc.Frame.ID, toAPIError(err).shape)
	} else {
		err = rc.Client.Respond(rc.Frame.ID, payload)
	}
	if err != nil {
		rc.Server.log.Warn().Err(err).Str("method", rc.Frame.Method).Msg("failed to send response")
	}
}

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/soyeahso/layoutdb/internal/column"
	"github.com/soyeahso/layoutdb/internal/store"
)

// HealthResponse is returned by the health endpoints. The public HTTP
// endpoint only fills Status.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Schema   int    `json:"schema,omitempty"`
	Clients  int    `json:"clients,omitempty"`
	UptimeMs int64  `json:"uptimeMs,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

// RequestHandler processes one RPC request.
type RequestHandler func(rc *RequestContext)

// RequestContext carries what a handler needs.
type RequestContext struct {
	Ctx    context.Context
	Client *Client
	Frame  Frame
	Server *Server
}

// Respond sends a success response.
func (rc *RequestContext) Respond(payload any) {
	if err := rc.Client.Respond(rc.Frame.ID, payload); err != nil {
		rc.Server.log.Warn().Err(err).Str("method", rc.Frame.Method).Msg("failed to send response")
	}
}

// RespondError sends an error response.
func (rc *RequestContext) RespondError(code, message string) {
	if err := rc.Client.RespondError(rc.Frame.ID, ErrorShape{Code: code, Message: message}); err != nil {
		rc.Server.log.Warn().Err(err).Str("method", rc.Frame.Method).Msg("failed to send error response")
	}
}

// Fail maps err onto an error code and responds with it.
func (rc *RequestContext) Fail(err error) {
	code := CodeStore
	var decodeErr *column.DecodeError
	switch {
	case errors.Is(err, store.ErrNotFound):
		code = CodeNotFound
	case errors.As(err, &decodeErr):
		code = CodeCorrupt
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = CodeCanceled
	}
	rc.Server.log.Debug().Err(err).Str("method", rc.Frame.Method).Str("code", code).Msg("request failed")
	rc.RespondError(code, err.Error())
}

// Params decodes the request params into target. Missing params leave
// target untouched.
func (rc *RequestContext) Params(target any) error {
	if len(rc.Frame.Params) == 0 {
		return nil
	}
	return json.Unmarshal(rc.Frame.Params, target)
}

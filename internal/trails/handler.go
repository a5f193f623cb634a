package trails

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/tinytrails/tinytrails/internal/errx"
	"github.com/tinytrails/tinytrails/internal/httpx"
)

// HTTPPaveRequest represents the JSON request body for paving a trail.
type HTTPPaveRequest struct {
	URL      string `json:"url"`
	Lifetime int    `json:"lifetime,omitempty"`
}

// PaveResponse represents the JSON response for a paved trail.
type PaveResponse struct {
	TrailID string `json:"trail_id"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

// VisitStatsResponse mirrors VisitStats in the Info JSON body.
type VisitStatsResponse struct {
	All    int64 `json:"all"`
	Unique int64 `json:"unique"`
}

// InfoResponse represents the JSON response for trail information.
type InfoResponse struct {
	ID       string             `json:"id"`
	URL      string             `json:"url"`
	Visits   VisitStatsResponse `json:"visits"`
	Created  string             `json:"created"`
	Lifetime int                `json:"lifetime"`
}

// Handler provides HTTP handlers for the trail service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service Service
	Logger  *slog.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service: cfg.Service,
		logger:  logger,
	}
}

// Pave handles POST /pave.
func (h *Handler) Pave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	req, err := httpx.DecodeJSON[HTTPPaveRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode pave request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	if req.URL == "" {
		logger.WarnContext(ctx, "pave request missing url")
		httpx.WriteError(w, http.StatusUnprocessableEntity, "validation_failed", "url is required", nil)
		return
	}

	paved, err := h.service.Pave(ctx, PaveRequest{
		URL:      req.URL,
		Lifetime: req.Lifetime,
	})
	if err != nil {
		h.writeServiceError(ctx, w, err, "pave failed")
		return
	}

	logger.InfoContext(ctx, "trail paved",
		"trail_id", paved.TrailID,
		"lifetime", req.Lifetime,
	)

	httpx.WriteJSON(w, http.StatusOK, PaveResponse{
		TrailID: paved.TrailID,
		Token:   paved.Token,
		Message: fmt.Sprintf("Trail paved successfully with ID: %s", paved.TrailID),
	})
}

// Traverse handles GET /t/{trail_id}: redirect and record a visit.
func (h *Handler) Traverse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)
	trailID := r.PathValue("trail_id")

	url, err := h.service.Traverse(ctx, trailID, callerAddr(r))
	if err != nil {
		h.writeServiceError(ctx, w, err, "traverse failed")
		return
	}

	logger.InfoContext(ctx, "trail traversed", "trail_id", trailID)

	http.Redirect(w, r, url, http.StatusFound)
}

// Peek handles GET /peek/{trail_id}: return the URL without leaving a
// visit on the trail.
func (h *Handler) Peek(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)
	trailID := r.PathValue("trail_id")

	url, err := h.service.Peek(ctx, trailID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "peek failed")
		return
	}

	logger.InfoContext(ctx, "trail peeked", "trail_id", trailID)

	httpx.WriteText(w, http.StatusOK, url)
}

// Info handles GET /info/{trail_id}.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	trailID := r.PathValue("trail_id")

	info, err := h.service.Info(ctx, trailID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "info failed")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, InfoResponse{
		ID:  info.ID,
		URL: info.URL,
		Visits: VisitStatsResponse{
			All:    info.Visits.All,
			Unique: info.Visits.Unique,
		},
		Created:  info.CreatedAt.UTC().Format(time.RFC3339),
		Lifetime: info.Lifetime,
	})
}

// Delete handles DELETE /t/{trail_id}. The owner token comes from the
// X-Trail-Token header.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)
	trailID := r.PathValue("trail_id")
	token := r.Header.Get(TokenHeader)

	if err := h.service.Delete(ctx, trailID, token); err != nil {
		h.writeServiceError(ctx, w, err, "delete failed")
		return
	}

	logger.InfoContext(ctx, "trail deleted", "trail_id", trailID)

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With(
		"request_id", httpx.GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}

// writeServiceError translates service errors into HTTP responses.
// NotFound responses share one body for missing, expired, and
// unauthorized trails.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	kind := errx.KindOf(err)
	status := httpx.ErrorKindToStatus(kind)
	code := httpx.ErrorKindToCode(kind)

	logAttrs := []any{
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
	}

	switch kind {
	case errx.NotFound:
		h.logger.WarnContext(ctx, msg, logAttrs...)
		httpx.WriteError(w, status, code, "Trail not found or expired", nil)

	case errx.Invalid:
		h.logger.WarnContext(ctx, msg, logAttrs...)
		httpx.WriteError(w, status, code, userFacingMessage(err), nil)

	case errx.Unavailable:
		h.logger.ErrorContext(ctx, msg, logAttrs...)
		httpx.WriteError(w, status, code,
			"Unable to complete the request at this time. Please try again.", nil)

	default:
		h.logger.ErrorContext(ctx, msg, logAttrs...)
		httpx.WriteError(w, status, code, "an unexpected error occurred", nil)
	}
}

// userFacingMessage unwraps the validation cause, dropping internal op
// prefixes from the response body.
func userFacingMessage(err error) string {
	var e *errx.Error
	for errors.As(err, &e) {
		err = e.Err
	}
	if err == nil {
		return "validation failed"
	}
	return err.Error()
}

// callerAddr extracts the client host from the request. An empty result
// means the visit goes unrecorded; traversal itself is unaffected.
func callerAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

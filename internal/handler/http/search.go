package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mouadelabbassi/dashboard/internal/service"
	apperrors "github.com/mouadelabbassi/dashboard/pkg/errors"
	"github.com/mouadelabbassi/dashboard/pkg/httputil"
	"github.com/mouadelabbassi/dashboard/pkg/logger"
	"github.com/mouadelabbassi/dashboard/pkg/pagination"
	"github.com/mouadelabbassi/dashboard/pkg/validator"
)

// Limits of the list endpoints.
const (
	defaultListLimit = 10
	maxSuggestLimit  = 50
	maxTrendingLimit = 50
	maxRecentLimit   = 20
)

// SmartSearchHandler serves the natural-language search API.
type SmartSearchHandler struct {
	service *service.SmartSearch
	logger  *slog.Logger
}

// NewSmartSearchHandler creates the search API handler.
func NewSmartSearchHandler(svc *service.SmartSearch, logger *slog.Logger) *SmartSearchHandler {
	return &SmartSearchHandler{service: svc, logger: logger}
}

// SmartSearchRequest is the JSON body of POST /api/v1/ai/search. Page is
// 0-based; a missing size uses the service default.
type SmartSearchRequest struct {
	Query string `json:"query" validate:"required,max=500"`
	Page  int    `json:"page" validate:"gte=0"`
	Size  int    `json:"size" validate:"omitempty,min=1,max=100"`
}

// Search handles POST /api/v1/ai/search
func (h *SmartSearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SmartSearchRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	result, err := h.service.Search(r.Context(), service.SmartSearchInput{
		Query:  req.Query,
		Page:   req.Page,
		Size:   req.Size,
		UserID: logger.UserIDFromContext(r.Context()),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}

// Analyze handles GET /api/v1/ai/analyze?q=
func (h *SmartSearchHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("query parameter q is required"), h.logger)
		return
	}

	pq, err := h.service.Analyze(r.Context(), q)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, pq)
}

// Suggestions handles GET /api/v1/ai/suggestions?q=&limit=
func (h *SmartSearchHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	limit, err := pagination.Limit(r, defaultListLimit, maxSuggestLimit)
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput(err.Error()), h.logger)
		return
	}
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("query parameter q is required"), h.logger)
		return
	}

	result, err := h.service.Suggest(r.Context(), q, limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}

// Trending handles GET /api/v1/ai/trending?limit=
func (h *SmartSearchHandler) Trending(w http.ResponseWriter, r *http.Request) {
	limit, err := pagination.Limit(r, defaultListLimit, maxTrendingLimit)
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput(err.Error()), h.logger)
		return
	}

	trending, err := h.service.Trending(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]any{"trending": trending})
}

// History handles GET /api/v1/ai/history?limit=
// The caller is identified by the X-User-ID header.
func (h *SmartSearchHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, err := pagination.Limit(r, defaultListLimit, maxRecentLimit)
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput(err.Error()), h.logger)
		return
	}

	userID := logger.UserIDFromContext(r.Context())
	if userID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("X-User-ID header is required"), h.logger)
		return
	}

	recent, err := h.service.Recent(r.Context(), userID, limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]any{"recent": recent})
}

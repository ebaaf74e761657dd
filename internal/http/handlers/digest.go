package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/review-digest/internal/http/response"
	"github.com/yungbote/review-digest/internal/modules/reviewdigest"
	"github.com/yungbote/review-digest/internal/platform/apierr"
	"github.com/yungbote/review-digest/internal/platform/logger"
	"github.com/yungbote/review-digest/internal/services"
)

type DigestHandler struct {
	log *logger.Logger
	svc services.ReviewDigestService
}

func NewDigestHandler(log *logger.Logger, svc services.ReviewDigestService) *DigestHandler {
	return &DigestHandler{log: log.With("handler", "DigestHandler"), svc: svc}
}

// GET /api/modules/:module_id/digest
func (h *DigestHandler) GetDigest(c *gin.Context) {
	moduleID, ok := parseModuleID(c)
	if !ok {
		return
	}
	out, err := h.svc.GetDigest(c.Request.Context(), moduleID)
	if err != nil {
		response.RespondAPIError(c, digestError(err))
		return
	}
	response.RespondOK(c, out)
}

// GET /api/modules/:module_id/analysis
func (h *DigestHandler) GetAnalysis(c *gin.Context) {
	moduleID, ok := parseModuleID(c)
	if !ok {
		return
	}
	out, err := h.svc.Analyze(c.Request.Context(), moduleID)
	if err != nil {
		response.RespondAPIError(c, digestError(err))
		return
	}
	response.RespondOK(c, out)
}

// POST /api/digests/sweep
func (h *DigestHandler) RunSweep(c *gin.Context) {
	report, err := h.svc.Sweep(c.Request.Context())
	if err != nil {
		h.log.Warn("manual sweep failed", "error", err)
		response.RespondAPIError(c, digestError(err))
		return
	}
	response.RespondOK(c, gin.H{"sweep": report})
}

func parseModuleID(c *gin.Context) (uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Param("module_id"))
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_module_id", errors.New("invalid module id"))
		return uuid.Nil, false
	}
	return id, true
}

func digestError(err error) error {
	switch {
	case errors.Is(err, reviewdigest.ErrPersist):
		return apierr.New(http.StatusInternalServerError, "digest_persist_failed", err)
	default:
		return apierr.New(http.StatusInternalServerError, "digest_load_failed", err)
	}
}

package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rl1809/formalin/internal/core/domain"
	"github.com/rl1809/formalin/internal/core/service"
)

const idempotencyHeader = "Idempotency-Key"

type HTTPHandler struct {
	itemService   *service.ItemService
	expiryService *service.ExpiryService
	logger        *zap.Logger
}

type CreateItemHTTPResponse struct {
	ID int64 `json:"id"`
}

func NewHTTPHandler(itemService *service.ItemService, expiryService *service.ExpiryService, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{itemService: itemService, expiryService: expiryService, logger: logger}
}

func (h *HTTPHandler) ListItems(c *gin.Context) {
	items, err := h.itemService.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *HTTPHandler) GetItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	item, err := h.itemService.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *HTTPHandler) ItemHistory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	entries, err := h.itemService.History(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *HTTPHandler) CreateItem(c *gin.Context) {
	var in service.CreateItemInput
	if !bindBody(c, &in) {
		return
	}
	in.IdempotencyKey = c.GetHeader(idempotencyHeader)

	id, err := h.itemService.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreateItemHTTPResponse{ID: id})
}

func (h *HTTPHandler) UpdateItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var in service.UpdateItemInput
	if !bindBody(c, &in) {
		return
	}

	if err := h.itemService.Update(c.Request.Context(), id, in); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) DeleteItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.itemService.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExpiryReport lists items already expired at ?asOf= (RFC 3339 or a bare
// date, read as UTC). Without asOf the current time is used.
func (h *HTTPHandler) ExpiryReport(c *gin.Context) {
	asOf := time.Now()
	if raw := c.Query("asOf"); raw != "" {
		t, err := parseAsOf(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid asOf"})
			return
		}
		asOf = t
	}

	report, err := h.expiryService.Report(c.Request.Context(), asOf)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidTimestamp):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
	case errors.Is(err, service.ErrDuplicateRequest):
		c.JSON(http.StatusConflict, gin.H{"error": "duplicate request"})
	default:
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// bindBody decodes a JSON body. An empty body is an empty input.
func bindBody(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

func parseAsOf(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/feedpilot/backend/internal/domain"
	"github.com/feedpilot/backend/internal/infrastructure/export"
	"github.com/feedpilot/backend/internal/usecase"
)

const (
	serviceName      = "feedpilot-backend"
	serviceVersion   = "1.0.0"
	maxBatchProducts = 10000
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	feedService *usecase.FeedService
	logger      zerolog.Logger
}

// NewHandler creates a new HTTP handler. A nil service makes every feed
// endpoint answer 501.
func NewHandler(feedService *usecase.FeedService, logger zerolog.Logger) *Handler {
	return &Handler{
		feedService: feedService,
		logger:      logger,
	}
}

// MapCategoryRequest is the body of POST /categories/map. Tags may be a
// comma separated string or an array of strings.
type MapCategoryRequest struct {
	ProductType string          `json:"productType"`
	Tags        json.RawMessage `json:"tags"`
}

// OptimizeRequest is the body of POST /feeds/optimize
type OptimizeRequest struct {
	Products []json.RawMessage `json:"products"`
}

// SyncRequest is the optional body of POST /feeds/sync
type SyncRequest struct {
	Publish bool `json:"publish"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// MapCategory resolves a product type and tags to a Merchant Center category
func (h *Handler) MapCategory(c *gin.Context) {
	if !h.available(c) {
		return
	}

	var req MapCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	tags, err := tagsText(req.Tags)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.feedService.MapCategory(req.ProductType, tags))
}

// ValidateProduct checks one raw product against the Merchant Center rules
func (h *Handler) ValidateProduct(c *gin.Context) {
	if !h.available(c) {
		return
	}

	raw, ok := readRawProduct(c)
	if !ok {
		return
	}

	results, skipped := h.feedService.ValidateProducts([]json.RawMessage{raw})
	if len(results) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": skipReason(skipped)})
		return
	}

	c.JSON(http.StatusOK, results[0].Validation)
}

// ScoreProduct computes the composite score of one raw product
func (h *Handler) ScoreProduct(c *gin.Context) {
	if !h.available(c) {
		return
	}

	raw, ok := readRawProduct(c)
	if !ok {
		return
	}

	scored, skipped := h.feedService.ScoreProducts([]json.RawMessage{raw})
	if len(scored) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": skipReason(skipped)})
		return
	}

	c.JSON(http.StatusOK, scored[0].Score)
}

// OptimizeFeed optimizes the products of the request body and stores the run
func (h *Handler) OptimizeFeed(c *gin.Context) {
	if !h.available(c) {
		return
	}

	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if len(req.Products) > maxBatchProducts {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("a batch holds at most %d products", maxBatchProducts),
		})
		return
	}

	run, err := h.feedService.OptimizeProducts(c.Request.Context(), req.Products)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, run)
}

// SyncFeed pulls the configured feed, optimizes it and optionally publishes it
func (h *Handler) SyncFeed(c *gin.Context) {
	if !h.available(c) {
		return
	}
	if !h.feedService.CanSync() {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Feed provider not configured"})
		return
	}

	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	run, err := h.feedService.SyncFeed(c.Request.Context(), usecase.SyncOptions{Publish: req.Publish})
	if err != nil {
		if run != nil && errors.Is(err, domain.ErrFeedPublishFailure) {
			// The optimization itself succeeded and was stored
			h.logger.Error().Err(err).Str("run_id", run.ID).Msg("feed publish failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "run": run})
			return
		}
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, run)
}

// GetRun returns a stored optimization run
func (h *Handler) GetRun(c *gin.Context) {
	if !h.available(c) {
		return
	}

	run, err := h.feedService.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, run)
}

// ExportRun streams a stored run as a Merchant Center supplemental feed
func (h *Handler) ExportRun(c *gin.Context) {
	if !h.available(c) {
		return
	}

	run, err := h.feedService.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Type", export.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName(run.ID)))
	c.Status(http.StatusOK)

	if err := export.WriteSupplementalFeed(c.Writer, run.Result.OptimizedProducts); err != nil {
		h.logger.Error().Err(err).Str("run_id", run.ID).Msg("failed to write export")
	}
}

func (h *Handler) available(c *gin.Context) bool {
	if h.feedService == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Feed service not configured"})
		return false
	}
	return true
}

// handleError maps domain errors to HTTP status codes
func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrMalformedProduct),
		errors.Is(err, domain.ErrMissingIdentifier):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRunNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrProviderNotConfigured):
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrFeedProviderFailure), errors.Is(err, domain.ErrFeedPublishFailure):
		h.logger.Error().Err(err).Msg("feed platform request failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func readRawProduct(c *gin.Context) (json.RawMessage, bool) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return nil, false
	}
	body = []byte(strings.TrimSpace(string(body)))
	if len(body) == 0 || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must be a JSON product"})
		return nil, false
	}
	return json.RawMessage(body), true
}

func tagsText(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, ", "), nil
	}
	return "", errors.New("tags must be a string or an array of strings")
}

func skipReason(skipped []domain.SkippedProduct) string {
	if len(skipped) == 0 {
		return domain.ErrMalformedProduct.Error()
	}
	return skipped[0].Reason
}

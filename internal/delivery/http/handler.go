package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stylelens/backend/internal/domain"
	"github.com/stylelens/backend/internal/usecase"
)

// maxImageBytes bounds uploaded image size (vision providers reject larger
// payloads anyway)
const maxImageBytes = 10 << 20

// Handler holds dependencies for HTTP handlers
type Handler struct {
	extraction *usecase.ExtractionService
	taxonomy   domain.TaxonomyRepository
	store      domain.ExtractionRepository
	logger     zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(extraction *usecase.ExtractionService, taxonomy domain.TaxonomyRepository, store domain.ExtractionRepository, logger zerolog.Logger) *Handler {
	return &Handler{
		extraction: extraction,
		taxonomy:   taxonomy,
		store:      store,
		logger:     logger.With().Str("component", "http").Logger(),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "stylelens-backend",
		"version": "1.0.0",
	})
}

// CreateExtraction accepts a multipart image upload plus category context and
// runs the extraction pipeline
func (h *Handler) CreateExtraction(c *gin.Context) {
	category := c.PostForm("category")
	if category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category is required"})
		return
	}
	department := c.PostForm("department")

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	if fileHeader.Size > maxImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds 10MB limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
		return
	}

	record, err := h.extraction.Extract(c.Request.Context(), &usecase.ExtractRequest{
		Image: domain.EncodedImage{
			Data:     data,
			MimeType: fileHeader.Header.Get("Content-Type"),
		},
		CategoryLabel:   category,
		DepartmentLabel: department,
	})
	if err != nil {
		h.respondExtractionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

// GetExtraction returns a stored extraction record by ID
func (h *Handler) GetExtraction(c *gin.Context) {
	record, err := h.store.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "extraction not found"})
			return
		}
		h.logger.Error().Err(err).Msg("failed to load extraction record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load extraction"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// ListAttributes returns the current attribute taxonomy
func (h *Handler) ListAttributes(c *gin.Context) {
	attrs, err := h.taxonomy.AttributesForCategory(c.Request.Context(), c.Query("category"))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "taxonomy unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"attributes": attrs})
}

// UsageSummary aggregates token usage over the requested window (default 30
// days) for the external cost-accounting dashboard
func (h *Handler) UsageSummary(c *gin.Context) {
	days := 30
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	summary, err := h.store.UsageSummary(c.Request.Context(), since)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to aggregate usage")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate usage"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// respondExtractionError maps pipeline error kinds to HTTP statuses. A fatal
// main-pass failure surfaces as "extraction failed" rather than a payload of
// fabricated defaults.
func (h *Handler) respondExtractionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid extraction request"})
	case errors.Is(err, domain.ErrVisionUnavailable):
		h.logger.Warn().Err(err).Msg("vision model unavailable")
		c.JSON(http.StatusBadGateway, gin.H{"error": "extraction failed: vision model unavailable"})
	case errors.Is(err, domain.ErrMalformedResponse):
		h.logger.Warn().Err(err).Msg("vision model returned an unparseable response")
		c.JSON(http.StatusBadGateway, gin.H{"error": "extraction failed: vision model returned an unusable response"})
	case errors.Is(err, domain.ErrTaxonomyUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "attribute taxonomy unavailable"})
	default:
		h.logger.Error().Err(err).Msg("extraction failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "extraction failed"})
	}
}

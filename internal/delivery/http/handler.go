package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/watchlens/backend/internal/domain"
	"github.com/watchlens/backend/internal/usecase"
)

// Version is reported by the health check
const Version = "1.0.0"

// Error codes returned in the "code" field of error responses
const (
	CodeInvalidRequest    = "invalid_request"
	CodeNoSimilarProducts = "no_similar_products"
	CodeNoPriceData       = "no_price_data"
	CodeFeedFailure       = "feed_failure"
	CodeStoreFailure      = "store_failure"
	CodeRateLimited       = "rate_limited"
	CodeInternal          = "internal_error"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	pricing    *usecase.PricingService
	ingest     *usecase.IngestService
	catalog    domain.CatalogSource
	reconciler *usecase.Reconciler
	logger     zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	pricing *usecase.PricingService,
	ingest *usecase.IngestService,
	catalog domain.CatalogSource,
	reconciler *usecase.Reconciler,
	logger *zerolog.Logger,
) *Handler {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &Handler{
		pricing:    pricing,
		ingest:     ingest,
		catalog:    catalog,
		reconciler: reconciler,
		logger:     l,
	}
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Code    string `json:"code"`
	Error   string `json:"error"`
	Matches int    `json:"similarWatchesCount,omitempty"`
}

// BatchRequest is the body of the batch pricing endpoint
type BatchRequest struct {
	Items []domain.PricingRequest `json:"items" binding:"required"`
}

// BatchItem is the outcome of one batch entry
type BatchItem struct {
	Index          int                    `json:"index"`
	Status         int                    `json:"status"`
	Code           string                 `json:"code,omitempty"`
	Error          string                 `json:"error,omitempty"`
	Recommendation *domain.Recommendation `json:"recommendation,omitempty"`
}

// IngestRequest is the body of the ingest endpoint: export URLs to fetch,
// or raw records to ingest directly
type IngestRequest struct {
	Sources []string           `json:"sources"`
	Records []domain.RawRecord `json:"records"`
}

// ReconcileRequest carries raw listings to reconcile against the catalog
type ReconcileRequest struct {
	Records []domain.RawRecord `json:"records" binding:"required"`
}

// ReconcileResponse summarizes a reconciliation against the catalog
type ReconcileResponse struct {
	usecase.Reconciliation
	Rejected []domain.RejectedRecord `json:"rejected,omitempty"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "watchlens-backend",
		"version": Version,
	})
}

// RecommendPrice prices one listing against the catalog
func (h *Handler) RecommendPrice(c *gin.Context) {
	var req domain.PricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err), nil)
		return
	}

	recommendation, err := h.pricing.Recommend(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err, recommendation)
		return
	}

	c.JSON(http.StatusOK, recommendation)
}

// RecommendBatch prices several listings against one catalog snapshot
func (h *Handler) RecommendBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err), nil)
		return
	}

	results, err := h.pricing.RecommendBatch(c.Request.Context(), req.Items)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	items := make([]BatchItem, len(results))
	for i, r := range results {
		item := BatchItem{Index: r.Index, Status: http.StatusOK, Recommendation: r.Recommendation}
		if r.Err != nil {
			item.Status, item.Code = statusFor(r.Err)
			item.Error = r.Err.Error()
		}
		items[i] = item
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// CatalogStats returns descriptive statistics of the catalog
func (h *Handler) CatalogStats(c *gin.Context) {
	catalog, err := h.catalog.Snapshot(c.Request.Context())
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, usecase.ComputeStatistics(catalog))
}

// SearchCatalog returns catalog records whose title, brand or model contain q
func (h *Handler) SearchCatalog(c *gin.Context) {
	limit := usecase.MaxSearchResults
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.respondError(c, fmt.Errorf("%w: limit must be a positive integer", domain.ErrInvalidRequest), nil)
			return
		}
		limit = n
	}

	catalog, err := h.catalog.Snapshot(c.Request.Context())
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	results := usecase.Search(catalog, c.Query("q"), limit)
	c.JSON(http.StatusOK, gin.H{
		"query":   c.Query("q"),
		"count":   len(results),
		"results": results,
	})
}

// IngestCatalog fetches scraper exports or accepts raw records and stores them
func (h *Handler) IngestCatalog(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err), nil)
		return
	}

	var (
		report *usecase.IngestReport
		err    error
	)
	switch {
	case len(req.Records) > 0:
		report, err = h.ingest.IngestRecords(c.Request.Context(), req.Records)
	default:
		report, err = h.ingest.Ingest(c.Request.Context(), req.Sources)
	}
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ReconcileCatalog matches submitted listings one-to-one against the catalog
func (h *Handler) ReconcileCatalog(c *gin.Context) {
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err), nil)
		return
	}

	catalog, err := h.catalog.Snapshot(c.Request.Context())
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	source, rejected := h.ingest.Prepare(req.Records)
	c.JSON(http.StatusOK, ReconcileResponse{
		Reconciliation: h.reconciler.Reconcile(source, catalog),
		Rejected:       rejected,
	})
}

// respondError maps err to a status code and writes the error body
func (h *Handler) respondError(c *gin.Context, err error, partial *domain.Recommendation) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}

	resp := ErrorResponse{Code: code, Error: err.Error()}
	if partial != nil {
		resp.Matches = len(partial.Matches)
	}
	c.JSON(status, resp)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, domain.ErrNoSimilarProducts):
		return http.StatusNotFound, CodeNoSimilarProducts
	case errors.Is(err, domain.ErrNoPriceData):
		return http.StatusNotFound, CodeNoPriceData
	case errors.Is(err, domain.ErrFeedFailure):
		return http.StatusBadGateway, CodeFeedFailure
	case errors.Is(err, domain.ErrStoreFailure):
		return http.StatusServiceUnavailable, CodeStoreFailure
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// Scan HTTP handlers.
//
// This file exposes REST endpoints for scan resources:
//   - POST   /scans                (create from uploaded label photo, idempotent)
//   - GET    /scans                (list, paginated, ETag support)
//   - GET    /scans/{id}           (fetch one)
//   - GET    /scans/{id}/related   (repeat scans of the same label)
//   - DELETE /scans/{id}           (remove)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinobytes/somm-backend/internal/domain"
	"github.com/vinobytes/somm-backend/internal/http/middleware"
	"github.com/vinobytes/somm-backend/internal/repo"
	"github.com/vinobytes/somm-backend/internal/services"
	"github.com/vinobytes/somm-backend/internal/somm"
	"github.com/vinobytes/somm-backend/internal/tasting"
	"github.com/vinobytes/somm-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ScanService defines scan lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ScanService interface {
	// Create runs the extraction pipeline on an uploaded image. replayed is
	// true when an Idempotency-Key matched a previously completed creation.
	Create(ctx context.Context, userID string, image []byte, idemKey string) (*domain.Scan, bool, error)
	// Get returns a scan owned by userID.
	Get(ctx context.Context, userID, scanID string) (*domain.Scan, error)
	// ListPage returns a page of scans for a user and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Scan, int64, error)
	// Related returns the user's other scans of the same label.
	Related(ctx context.Context, userID, scanID string) ([]domain.Scan, error)
	// Delete removes a scan that belongs to userID.
	Delete(ctx context.Context, userID, scanID string) error
}

// ProfileService defines on-demand tasting-profile synthesis.
type ProfileService interface {
	// Synthesize returns the AI tasting profile for a persisted scan.
	Synthesize(ctx context.Context, userID, scanID string) (*domain.AITastingProfile, error)
}

// FlowService defines the server-side guided-tasting session operations.
//
// Implementations should be safe for concurrent use.
type FlowService interface {
	// Start registers a new flow against a scan.
	Start(ctx context.Context, userID, scanID string, profile domain.AITastingProfile, opts tasting.Options) (string, *tasting.Flow, error)
	// Get returns a live flow.
	Get(ctx context.Context, userID, flowID string) (*tasting.Flow, error)
	// SetField writes one scalar or notes value on a flow.
	SetField(ctx context.Context, userID, flowID, field, value string) (*tasting.Flow, error)
	// Toggle flips a descriptor selection on a flow.
	Toggle(ctx context.Context, userID, flowID, kind, item string) (*tasting.Flow, error)
	// Advance moves a flow forward; the terminal advance returns the
	// persisted tasting and a nil flow.
	Advance(ctx context.Context, userID, flowID string) (*tasting.Flow, *domain.Tasting, error)
}

// TastingService defines read access to recorded tasting sessions.
type TastingService interface {
	// List returns all sessions recorded for a scan, newest first.
	List(ctx context.Context, userID, scanID string) ([]domain.TastingSession, error)
	// Latest returns the most recent session for a scan.
	Latest(ctx context.Context, userID, scanID string) (*domain.TastingSession, error)
	// Get returns one session by id.
	Get(ctx context.Context, userID, tastingID string) (*domain.TastingSession, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for scans, profiles, flows, and tastings.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	scanSvc    ScanService
	profileSvc ProfileService
	flowSvc    FlowService
	tastingSvc TastingService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(scanSvc ScanService, profileSvc ProfileService, flowSvc FlowService, tastingSvc TastingService) *Handlers {
	return &Handlers{scanSvc: scanSvc, profileSvc: profileSvc, flowSvc: flowSvc, tastingSvc: tastingSvc}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// ScanResponse is the wire representation of a persisted scan plus its
// decoded wine payload.
type ScanResponse struct {
	ID        string          `json:"id"`
	Wine      domain.WineData `json:"wine"`
	CreatedAt time.Time       `json:"created_at"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListScansResponse wraps a page of scans and pagination information.
type ListScansResponse struct {
	Scans      []ScanResponse `json:"scans"`
	Pagination Pagination     `json:"pagination"`
}

// RelatedScansResponse wraps the other scans recorded for the same label.
type RelatedScansResponse struct {
	Scans []ScanResponse `json:"scans"`
}

func scanResponse(s *domain.Scan) ScanResponse {
	return ScanResponse{
		ID:        s.ID,
		Wine:      s.Wine(),
		CreatedAt: s.CreatedAt.UTC(),
	}
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.Clamp(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

// failUpstream maps extraction/synthesis client errors onto the HTTP error
// taxonomy. domainCode is used for payload-level failures (bad model output,
// non-2xx upstream status); transport failures map to 503.
func failUpstream(c *gin.Context, err error, domainCode string) {
	var se *somm.StatusError
	switch {
	case errors.Is(err, somm.ErrUnavailable):
		fail(c, http.StatusServiceUnavailable, ErrCodeUpstreamDown, "extraction service unreachable")
	case errors.As(err, &se):
		fail(c, http.StatusBadGateway, domainCode, fmt.Sprintf("upstream returned status %d", se.StatusCode))
	case errors.Is(err, somm.ErrEnvelope), errors.Is(err, somm.ErrPayload):
		fail(c, http.StatusBadGateway, domainCode, "upstream returned an unusable response")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

//
// Handlers
//

// CreateScan godoc
// @ID          createScan
// @Summary     Scan a wine label
// @Description Uploads a label photo (multipart field "image"), runs AI extraction, and persists the scan. Safe to retry with an Idempotency-Key header.
// @Tags        Scans
// @Accept      multipart/form-data
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Retry deduplication key"
// @Param       image            formData file   true  "Label photo (JPEG/PNG)"
//
// @Success     201  {object}  handlers.ScanResponse
// @Success     200  {object}  handlers.ScanResponse "Replayed from Idempotency-Key"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     502  {object}  handlers.ErrorResponse "Extraction failed"
// @Failure     503  {object}  handlers.ErrorResponse "Extraction service unreachable"
// @Router      /scans [post]
func (h *Handlers) CreateScan(c *gin.Context) {
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, `multipart field "image" required`)
		return
	}
	defer file.Close()
	raw, err := io.ReadAll(file)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "could not read image upload")
		return
	}

	idemKey, _ := middleware.GetIdempotencyKey(c)

	scan, replayed, err := h.scanSvc.Create(c.Request.Context(), userID(c), raw, idemKey)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyImage):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "image upload is empty")
		case errors.Is(err, services.ErrBadImage):
			fail(c, http.StatusBadRequest, ErrCodeBadImage, "image could not be decoded")
		default:
			failUpstream(c, err, ErrCodeExtractionFailed)
		}
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	ok(c, status, scanResponse(scan))
}

// ListScans godoc
// @ID          listScans
// @Summary     List scans (paginated)
// @Description Returns a page of the user's scans, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Scans
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListScansResponse
// @Header      200  {string} ETag           "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /scans [get]
func (h *Handlers) ListScans(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.scanSvc.(*services.ScanService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.ScansStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"scans:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.scanSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	out := make([]ScanResponse, 0, len(items))
	for i := range items {
		out = append(out, scanResponse(&items[i]))
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListScansResponse{
		Scans: out,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetScan godoc
// @ID          getScan
// @Summary     Fetch one scan
// @Description Returns a single scan owned by the current user, including the decoded wine payload.
// @Tags        Scans
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Scan ID (UUID)"         format(uuid)
//
// @Success     200  {object} handlers.ScanResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Scan not found"
// @Router      /scans/{id} [get]
func (h *Handlers) GetScan(c *gin.Context) {
	scanID := c.Param("id")
	if _, err := uuid.Parse(scanID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "scan id must be a UUID")
		return
	}
	scan, err := h.scanSvc.Get(c.Request.Context(), userID(c), scanID)
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "scan not found")
		return
	}
	ok(c, http.StatusOK, scanResponse(scan))
}

// ListRelatedScans godoc
// @ID          listRelatedScans
// @Summary     List repeat scans of the same label
// @Description Returns the user's other scans whose derived wine identity matches this scan, newest first.
// @Tags        Scans
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Scan ID (UUID)"         format(uuid)
//
// @Success     200  {object} handlers.RelatedScansResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Scan not found"
// @Router      /scans/{id}/related [get]
func (h *Handlers) ListRelatedScans(c *gin.Context) {
	scanID := c.Param("id")
	if _, err := uuid.Parse(scanID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "scan id must be a UUID")
		return
	}
	items, err := h.scanSvc.Related(c.Request.Context(), userID(c), scanID)
	if err != nil {
		if errors.Is(err, services.ErrScanNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "scan not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	out := make([]ScanResponse, 0, len(items))
	for i := range items {
		out = append(out, scanResponse(&items[i]))
	}
	ok(c, http.StatusOK, RelatedScansResponse{Scans: out})
}

// DeleteScan godoc
// @ID          deleteScan
// @Summary     Delete a scan
// @Description Soft-deletes a scan owned by the current user; its recorded tastings go with it.
// @Tags        Scans
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Scan ID (UUID)"         format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Scan not found"
// @Router      /scans/{id} [delete]
func (h *Handlers) DeleteScan(c *gin.Context) {
	scanID := c.Param("id")
	if _, err := uuid.Parse(scanID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "scan id must be a UUID")
		return
	}
	if err := h.scanSvc.Delete(c.Request.Context(), userID(c), scanID); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "scan not found")
		return
	}
	noContent(c)
}

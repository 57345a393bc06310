// Tasting history HTTP handlers.
//
//   - GET /scans/{id}/tastings        (all sessions recorded for a scan, newest first, ETag support)
//   - GET /scans/{id}/tastings/latest (the most recent session)
//   - GET /tastings/{id}              (one session)
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinobytes/somm-backend/internal/domain"
	"github.com/vinobytes/somm-backend/internal/repo"
	"github.com/vinobytes/somm-backend/internal/services"
)

// ListTastingsResponse wraps the recorded sessions for one scan.
type ListTastingsResponse struct {
	Tastings []domain.TastingSession `json:"tastings"`
}

// ListTastings godoc
// @ID          listTastings
// @Summary     List recorded tastings for a scan
// @Description Returns every finalized session for the scan, newest first.
// @Tags        Tastings
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Scan ID (UUID)"         format(uuid)
//
// @Success     200  {object} handlers.ListTastingsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Scan not found"
// @Router      /scans/{id}/tastings [get]
func (h *Handlers) ListTastings(c *gin.Context) {
	scanID := c.Param("id")
	if _, err := uuid.Parse(scanID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "scan id must be a UUID")
		return
	}
	uid := userID(c)

	// ETag pre-check (best effort), same scheme as the scan list.
	var db *gorm.DB
	if svc, ok := h.tastingSvc.(*services.TastingService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.TastingsStats(c.Request.Context(), db, scanID, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"tastings:%s:%s:%d:%d"`, uid, scanID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	sessions, err := h.tastingSvc.List(c.Request.Context(), uid, scanID)
	if err != nil {
		if errors.Is(err, services.ErrScanNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "scan not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListTastingsResponse{Tastings: sessions})
}

// GetLatestTasting godoc
// @ID          getLatestTasting
// @Summary     Fetch the most recent tasting for a scan
// @Description Returns the newest finalized session recorded for the scan.
// @Tags        Tastings
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Scan ID (UUID)"         format(uuid)
//
// @Success     200  {object} domain.TastingSession
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Scan or tasting not found"
// @Router      /scans/{id}/tastings/latest [get]
func (h *Handlers) GetLatestTasting(c *gin.Context) {
	scanID := c.Param("id")
	if _, err := uuid.Parse(scanID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "scan id must be a UUID")
		return
	}
	session, err := h.tastingSvc.Latest(c.Request.Context(), userID(c), scanID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrScanNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "scan not found")
		case errors.Is(err, services.ErrTastingNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "no tastings recorded for this scan")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, session)
}

// GetTasting godoc
// @ID          getTasting
// @Summary     Fetch one recorded tasting
// @Description Returns a single finalized session with the user's input snapshot and the AI profile it was compared to.
// @Tags        Tastings
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Tasting ID (UUID)"      format(uuid)
//
// @Success     200  {object} domain.TastingSession
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Tasting not found"
// @Router      /tastings/{id} [get]
func (h *Handlers) GetTasting(c *gin.Context) {
	tastingID := c.Param("id")
	if _, err := uuid.Parse(tastingID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "tasting id must be a UUID")
		return
	}
	session, err := h.tastingSvc.Get(c.Request.Context(), userID(c), tastingID)
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "tasting not found")
		return
	}
	ok(c, http.StatusOK, session)
}

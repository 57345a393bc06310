// Profile HTTP handlers.
//
// POST /scans/{id}/profile synthesizes the AI tasting profile for a persisted
// scan. Synthesis is stateless on the server: the profile is returned to the
// caller, who hands it back when starting a guided flow.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vinobytes/somm-backend/internal/services"
)

// SynthesizeProfile godoc
// @ID          synthesizeProfile
// @Summary     Synthesize a tasting profile
// @Description Generates the expected tasting profile for the scanned wine: five structural ratings, four aromas, four flavors, and coaching tips.
// @Tags        Profiles
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Scan ID (UUID)"         format(uuid)
//
// @Success     200  {object} domain.AITastingProfile
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Scan not found"
// @Failure     502  {object} handlers.ErrorResponse "Synthesis failed"
// @Failure     503  {object} handlers.ErrorResponse "Synthesis service unreachable"
// @Router      /scans/{id}/profile [post]
func (h *Handlers) SynthesizeProfile(c *gin.Context) {
	scanID := c.Param("id")
	if _, err := uuid.Parse(scanID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "scan id must be a UUID")
		return
	}
	profile, err := h.profileSvc.Synthesize(c.Request.Context(), userID(c), scanID)
	if err != nil {
		if errors.Is(err, services.ErrScanNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "scan not found")
			return
		}
		failUpstream(c, err, ErrCodeSynthesisFailed)
		return
	}
	ok(c, http.StatusOK, profile)
}

// Guided-tasting flow HTTP handlers.
//
// This file exposes the server-side tasting session:
//   - POST /scans/{id}/flows      (start against a scan, body carries profile)
//   - GET  /flows/{id}            (current step, progress, gate state)
//   - PUT  /flows/{id}/input      (set a scalar or the notes field)
//   - POST /flows/{id}/selections (toggle an aroma/flavor; 409 on a 5th pick)
//   - POST /flows/{id}/advance    (next step; terminal advance persists)
//
// Flow state lives in memory keyed by flow id; the terminal advance is the
// only write that touches the database.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vinobytes/somm-backend/internal/domain"
	"github.com/vinobytes/somm-backend/internal/services"
	"github.com/vinobytes/somm-backend/internal/tasting"
)

//
// DTOs
//

// StartFlowRequest is the JSON payload for starting a guided tasting.
type StartFlowRequest struct {
	// Profile is the synthesized AI profile obtained from the profile endpoint.
	Profile domain.AITastingProfile `json:"profile" binding:"required"`
	// ShowIntro includes the intro step at the head of the flow.
	ShowIntro bool `json:"show_intro"`
}

// SetInputRequest is the JSON payload for writing one input field.
type SetInputRequest struct {
	// Field is one of acidity, alcohol, tannin, body, sweetness, notes.
	Field string `json:"field" binding:"required" example:"acidity"`
	// Value is the enum member name, or free text for notes.
	Value string `json:"value" example:"medium-plus"`
}

// ToggleSelectionRequest is the JSON payload for flipping a descriptor pick.
type ToggleSelectionRequest struct {
	// Kind is "aroma" or "flavor".
	Kind string `json:"kind" binding:"required" example:"aroma"`
	// Item is the descriptor, which must come from the offered pool.
	Item string `json:"item" binding:"required" example:"Cherry"`
}

// FlowResponse is the wire representation of a live flow.
type FlowResponse struct {
	ID         string              `json:"id"`
	Step       string              `json:"step"`
	StepIndex  int                 `json:"step_index"`
	TotalSteps int                 `json:"total_steps"`
	ShowTannin bool                `json:"show_tannin"`
	CanAdvance bool                `json:"can_advance"`
	Finished   bool                `json:"finished"`
	WineName   string              `json:"wine_name"`
	Input      domain.TastingInput `json:"input"`
	AromaPool  []string            `json:"aroma_pool"`
	FlavorPool []string            `json:"flavor_pool"`
	Summary    *tasting.Summary    `json:"summary,omitempty"`
}

// AdvanceResponse is returned by the advance endpoint. Exactly one of Flow
// and Session is set: Flow while the tasting is still in progress, Session
// once the terminal advance has persisted it.
type AdvanceResponse struct {
	Flow    *FlowResponse          `json:"flow,omitempty"`
	Session *domain.TastingSession `json:"session,omitempty"`
}

func flowResponse(id string, f *tasting.Flow) *FlowResponse {
	wine := f.Wine()
	resp := &FlowResponse{
		ID:         id,
		Step:       f.Step().String(),
		StepIndex:  int(f.Step()),
		TotalSteps: f.TotalSteps(),
		ShowTannin: f.ShowsTannin(),
		CanAdvance: f.CanAdvance(),
		Finished:   f.Finished(),
		WineName:   wine.DisplayName(),
		Input:      f.Input(),
		AromaPool:  f.AromaOptions(),
		FlavorPool: f.FlavorOptions(),
	}
	if f.Step() == tasting.StepSummary {
		s := f.Summary()
		resp.Summary = &s
	}
	return resp
}

// failFlow maps flow/service errors onto the HTTP error taxonomy.
func failFlow(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrFlowNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "flow not found or expired")
	case errors.Is(err, services.ErrUnknownField):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown input field")
	case errors.Is(err, services.ErrUnknownSelectionKind):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, `kind must be "aroma" or "flavor"`)
	case errors.Is(err, tasting.ErrSelectionFull):
		fail(c, http.StatusConflict, ErrCodeSelectionLimit, "at most 4 descriptors may be selected")
	case errors.Is(err, tasting.ErrNotInPool):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "descriptor is not in the offered pool")
	case errors.Is(err, tasting.ErrStepIncomplete):
		fail(c, http.StatusConflict, ErrCodeStepIncomplete, "current step is not complete")
	case errors.Is(err, tasting.ErrFinished):
		fail(c, http.StatusConflict, ErrCodeFlowFinished, "flow is already finished")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

//
// Handlers
//

// StartFlow godoc
// @ID          startFlow
// @Summary     Start a guided tasting
// @Description Creates a server-side tasting flow for a scan. The body carries the synthesized profile and display options; the response is the initial flow state.
// @Tags        Flows
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Scan ID (UUID)"         format(uuid)
// @Param       body       body    handlers.StartFlowRequest  true  "Profile and options"
//
// @Success     201  {object} handlers.FlowResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Scan not found"
// @Router      /scans/{id}/flows [post]
func (h *Handlers) StartFlow(c *gin.Context) {
	scanID := c.Param("id")
	if _, err := uuid.Parse(scanID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "scan id must be a UUID")
		return
	}
	var req StartFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	id, f, err := h.flowSvc.Start(c.Request.Context(), userID(c), scanID, req.Profile, tasting.Options{ShowIntro: req.ShowIntro})
	if err != nil {
		if errors.Is(err, services.ErrScanNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "scan not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusCreated, flowResponse(id, f))
}

// GetFlow godoc
// @ID          getFlow
// @Summary     Fetch flow state
// @Description Returns the current step, progress, selections, and gate state of a live flow.
// @Tags        Flows
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Flow ID (UUID)"         format(uuid)
//
// @Success     200  {object} handlers.FlowResponse
// @Failure     404  {object} handlers.ErrorResponse "Flow not found or expired"
// @Router      /flows/{id} [get]
func (h *Handlers) GetFlow(c *gin.Context) {
	flowID := c.Param("id")
	f, err := h.flowSvc.Get(c.Request.Context(), userID(c), flowID)
	if err != nil {
		failFlow(c, err)
		return
	}
	ok(c, http.StatusOK, flowResponse(flowID, f))
}

// SetFlowInput godoc
// @ID          setFlowInput
// @Summary     Write one input field
// @Description Sets a structural scalar (by enum member name, decoded leniently) or the free-text notes on a live flow.
// @Tags        Flows
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Flow ID (UUID)"         format(uuid)
// @Param       body       body    handlers.SetInputRequest  true  "Field and value"
//
// @Success     200  {object} handlers.FlowResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Flow not found or expired"
// @Router      /flows/{id}/input [put]
func (h *Handlers) SetFlowInput(c *gin.Context) {
	flowID := c.Param("id")
	var req SetInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	f, err := h.flowSvc.SetField(c.Request.Context(), userID(c), flowID, req.Field, req.Value)
	if err != nil {
		failFlow(c, err)
		return
	}
	ok(c, http.StatusOK, flowResponse(flowID, f))
}

// ToggleSelection godoc
// @ID          toggleSelection
// @Summary     Toggle a descriptor pick
// @Description Flips membership of a descriptor in the aroma or flavor selection. Deselection always succeeds; a fifth distinct pick is rejected with 409.
// @Tags        Flows
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Flow ID (UUID)"         format(uuid)
// @Param       body       body    handlers.ToggleSelectionRequest  true  "Kind and item"
//
// @Success     200  {object} handlers.FlowResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Flow not found or expired"
// @Failure     409  {object} handlers.ErrorResponse "Selection limit reached"
// @Router      /flows/{id}/selections [post]
func (h *Handlers) ToggleSelection(c *gin.Context) {
	flowID := c.Param("id")
	var req ToggleSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	f, err := h.flowSvc.Toggle(c.Request.Context(), userID(c), flowID, req.Kind, req.Item)
	if err != nil {
		failFlow(c, err)
		return
	}
	ok(c, http.StatusOK, flowResponse(flowID, f))
}

// AdvanceFlow godoc
// @ID          advanceFlow
// @Summary     Advance the flow
// @Description Moves the flow one step forward, skipping tannin when it does not apply. At the summary step the session is persisted and returned; the flow is gone afterwards.
// @Tags        Flows
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Flow ID (UUID)"         format(uuid)
//
// @Success     200  {object} handlers.AdvanceResponse
// @Failure     404  {object} handlers.ErrorResponse "Flow not found or expired"
// @Failure     409  {object} handlers.ErrorResponse "Step incomplete or flow finished"
// @Router      /flows/{id}/advance [post]
func (h *Handlers) AdvanceFlow(c *gin.Context) {
	flowID := c.Param("id")
	f, rec, err := h.flowSvc.Advance(c.Request.Context(), userID(c), flowID)
	if err != nil {
		failFlow(c, err)
		return
	}
	if rec != nil {
		session, gerr := h.tastingSvc.Get(c.Request.Context(), userID(c), rec.ID)
		if gerr != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, gerr.Error())
			return
		}
		ok(c, http.StatusOK, AdvanceResponse{Session: session})
		return
	}
	ok(c, http.StatusOK, AdvanceResponse{Flow: flowResponse(flowID, f)})
}

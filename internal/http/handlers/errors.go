package handlers

// Error codes carried in ErrorResponse.Code. Codes are stable snake_case
// strings clients branch on; messages may change freely. The generic block
// mirrors plain HTTP semantics, the rest name failures the status alone
// cannot convey (a 409 may be a full selection or an unanswered step).

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeExtractionFailed = "extraction_failed"
	ErrCodeSynthesisFailed  = "synthesis_failed"
	ErrCodeUpstreamDown     = "upstream_unavailable"
	ErrCodeBadImage         = "bad_image"
	ErrCodeSelectionLimit   = "selection_limit"
	ErrCodeStepIncomplete   = "step_incomplete"
	ErrCodeFlowFinished     = "flow_finished"
	ErrCodeListFailed       = "list_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

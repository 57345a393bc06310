// Package services defines the business logic for scans, tasting-profile
// synthesis, and guided-tasting flows. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

var (
	// ErrScanNotFound indicates that the requested scan does not exist or is
	// not accessible to the current user.
	ErrScanNotFound = errors.New("scan not found")

	// ErrEmptyImage is returned when a scan request carries no pixel data.
	ErrEmptyImage = errors.New("image is empty")

	// ErrBadImage is returned when the uploaded payload cannot be decoded as
	// an image.
	ErrBadImage = errors.New("image is not decodable")

	// ErrFlowNotFound indicates that the referenced guided-tasting flow does
	// not exist, belongs to another user, or has expired.
	ErrFlowNotFound = errors.New("tasting flow not found")

	// ErrUnknownField is returned when a flow input update names a field
	// outside the five structural scalars or notes.
	ErrUnknownField = errors.New("unknown tasting field")

	// ErrUnknownSelectionKind is returned when a selection toggle names
	// something other than "aromas" or "flavors".
	ErrUnknownSelectionKind = errors.New("selection kind must be aromas or flavors")

	// ErrTastingNotFound indicates that the requested tasting session does
	// not exist or is not accessible to the current user.
	ErrTastingNotFound = errors.New("tasting not found")
)

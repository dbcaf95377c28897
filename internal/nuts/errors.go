package nuts

import "errors"

// Sentinel errors returned by finder construction and queries. Callers match
// them with errors.Is; messages carry the specific cause via eris wrapping.
var (
	// ErrInvalidInput indicates an unusable source record or an invalid
	// finder configuration (e.g. min level above max level).
	ErrInvalidInput = errors.New("invalid input")

	// ErrHierarchyViolation indicates a region without a present parent
	// when the finder was built with strict hierarchy checking.
	ErrHierarchyViolation = errors.New("hierarchy violation")

	// ErrQueryInput indicates structurally invalid query input, such as
	// non-finite coordinates or a degenerate bounding box. A query that
	// simply matches nothing returns an empty result, not an error.
	ErrQueryInput = errors.New("invalid query input")
)

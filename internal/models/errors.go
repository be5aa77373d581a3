package models

import "errors"

// Stage sentinels. Every fatal error returned by a pipeline stage wraps
// exactly one of these.
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrDataSource        = errors.New("data source error")
	ErrGenerationService = errors.New("generation service error")
	ErrOutputWrite       = errors.New("output write error")
)

// Stage returns a short label for the pipeline stage that produced err, or
// "unknown" if err does not wrap one of the stage sentinels.
func Stage(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrDataSource):
		return "data source"
	case errors.Is(err, ErrGenerationService):
		return "generation"
	case errors.Is(err, ErrOutputWrite):
		return "output"
	default:
		return "unknown"
	}
}

package tui

import "errors"

// ErrMissingOrganiser is returned when the organiser service is not provided.
var ErrMissingOrganiser = errors.New("tui: organiser service is required")

// ErrMissingCascade is returned when the cascade service is not provided.
var ErrMissingCascade = errors.New("tui: cascade service is required")

// ErrMissingBrowse is returned when the browse service is not provided.
var ErrMissingBrowse = errors.New("tui: browse service is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")

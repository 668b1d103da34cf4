package tui

import "errors"

// ErrMissingModelCatalog is returned when the model catalog is not provided.
var ErrMissingModelCatalog = errors.New("tui: model catalog is required")

// ErrMissingSession is returned when the session is not provided.
var ErrMissingSession = errors.New("tui: session is required")

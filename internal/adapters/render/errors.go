package render

import "errors"

// ErrFontLoad is returned when the configured font cannot be loaded.
var ErrFontLoad = errors.New("load font")

package artifact

import "errors"

// Sentinel kinds for artifact errors.
var (
	ErrRenderFailed = errors.New("render failed")
	ErrUploadFailed = errors.New("upload failed")
)

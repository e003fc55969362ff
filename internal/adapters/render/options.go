package render

// Option applies a configuration option to the Renderer.
type Option func(*Renderer)

// WithWidth sets the image width in pixels.
func WithWidth(px int) Option {
	return func(r *Renderer) {
		if px > 0 {
			r.width = px
		}
	}
}

// WithRowHeight sets the height of one leaderboard row in pixels.
func WithRowHeight(px int) Option {
	return func(r *Renderer) {
		if px > 0 {
			r.rowHeight = px
		}
	}
}

// WithFontPath uses a TrueType font instead of the built-in bitmap face.
func WithFontPath(path string) Option {
	return func(r *Renderer) {
		r.fontPath = path
	}
}

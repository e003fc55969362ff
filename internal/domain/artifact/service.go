// Package artifact turns the top of a leaderboard into an image, reusing a
// previously uploaded image whenever the visible content is unchanged.
//
// Resolution goes Unresolved -> CacheHit -> Done, or
// Unresolved -> CacheMiss -> Rendering -> Uploading -> RegistryWrite -> Done.
// Render and upload failures end the request; nothing is written to the
// registry unless the upload succeeded.
package artifact

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/weekboard/internal/domain/model"
	"github.com/okian/weekboard/pkg/logger"
	"github.com/okian/weekboard/pkg/metrics"
)

// ContentType of every rendered artifact.
const ContentType = "image/png"

// Layout is what a Renderer draws.
type Layout struct {
	Title    string
	Week     string
	Region   string
	Currency string
	Rows     []model.Element
}

// Renderer draws a layout into encoded image bytes.
type Renderer interface {
	Render(ctx context.Context, layout Layout) ([]byte, error)
}

// ImageStore persists rendered images and resolves their public URL.
type ImageStore interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
	URL(externalImageID string) string
}

// Registry maps content hashes to uploaded images.
type Registry interface {
	FindByHash(ctx context.Context, hash string) (model.RenderArtifact, bool, error)
	Upsert(ctx context.Context, a model.RenderArtifact) error
}

// Request asks for the image of one leaderboard page.
type Request struct {
	Week     string
	Region   string
	Currency string
	Title    string
	Elements []model.Element
	// Force skips the registry lookup and re-renders.
	Force bool
	// Raw returns the rendered bytes without uploading or registering them.
	Raw bool
}

func (r Request) layout() Layout {
	return Layout{
		Title:    r.Title,
		Week:     r.Week,
		Region:   r.Region,
		Currency: r.Currency,
		Rows:     r.Elements,
	}
}

// Result is a resolved artifact. Bytes is set only for raw requests.
type Result struct {
	Hash            string `json:"hash"`
	ExternalImageID string `json:"externalImageId,omitempty"`
	URL             string `json:"url,omitempty"`
	Cached          bool   `json:"cached"`
	Bytes           []byte `json:"-"`
	ContentType     string `json:"-"`
}

// Service resolves leaderboard images.
type Service struct {
	registry Registry
	renderer Renderer
	store    ImageStore
	logger   logger.Logger
	now      func() time.Time
}

// New creates a Service.
func New(registry Registry, renderer Renderer, store ImageStore, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		renderer: renderer,
		store:    store,
		logger:   logger.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the image for req, rendering and uploading it only when no
// image with identical content exists.
func (s *Service) Resolve(ctx context.Context, req Request) (Result, error) {
	layout := req.layout()
	hash, err := Hash(layout)
	if err != nil {
		return Result{}, err
	}

	if !req.Force && !req.Raw {
		if res, ok := s.lookup(ctx, hash); ok {
			return res, nil
		}
	}

	data, err := s.render(ctx, layout)
	if err != nil {
		return Result{}, err
	}
	if req.Raw {
		return Result{Hash: hash, Bytes: data, ContentType: ContentType}, nil
	}

	start := time.Now()
	id, err := s.store.Upload(ctx, data, ContentType)
	metrics.RecordUploadLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordRenderError("upload")
		return Result{}, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	art := model.RenderArtifact{Hash: hash, ExternalImageID: id, URL: s.store.URL(id), CreatedAt: s.now().UTC()}
	if err := s.registry.Upsert(ctx, art); err != nil {
		metrics.RecordRenderError("registry")
		s.logger.Error(ctx, "registry write failed after upload",
			logger.String("hash", hash), logger.String("image_id", id), logger.Error(err))
	}
	return Result{Hash: hash, ExternalImageID: id, URL: art.URL}, nil
}

// lookup consults the registry. Read errors count as a miss.
func (s *Service) lookup(ctx context.Context, hash string) (Result, bool) {
	art, found, err := s.registry.FindByHash(ctx, hash)
	if err != nil {
		s.logger.Warn(ctx, "registry read failed, rendering", logger.String("hash", hash), logger.Error(err))
		return Result{}, false
	}
	if !found {
		return Result{}, false
	}
	metrics.RecordRegistryHit()
	url := art.URL
	if url == "" {
		url = s.store.URL(art.ExternalImageID)
	}
	return Result{Hash: hash, ExternalImageID: art.ExternalImageID, URL: url, Cached: true}, true
}

func (s *Service) render(ctx context.Context, layout Layout) ([]byte, error) {
	start := time.Now()
	data, err := s.renderer.Render(ctx, layout)
	metrics.RecordRenderLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordRenderError("render")
		return nil, fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}
	return data, nil
}

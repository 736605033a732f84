package background

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/invibe/internal/model"
	"github.com/google/uuid"
)

const (
	// DefaultMaxUploadBytes caps uploads when no limit is configured.
	DefaultMaxUploadBytes    = 5 << 20
	defaultGenerationTimeout = 10 * time.Second
)

// ImageStore keeps uploaded images and returns a location the client can
// load them from.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

type Config struct {
	MaxUploadBytes    int64
	GenerationTimeout time.Duration
}

// Resolver builds background descriptors.
type Resolver struct {
	catalog *Catalog
	images  ImageStore
	gen     Generator
	cfg     Config
}

// NewResolver creates a Resolver. images may be nil, in which case uploads
// are kept inline as data URLs.
func NewResolver(catalog *Catalog, images ImageStore, gen Generator, cfg Config) *Resolver {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = defaultGenerationTimeout
	}
	return &Resolver{catalog: catalog, images: images, gen: gen, cfg: cfg}
}

func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}

// SelectTemplate returns the descriptor for a catalog template.
func (r *Resolver) SelectTemplate(id string) (model.Background, error) {
	if _, ok := r.catalog.Lookup(id); !ok {
		return model.Background{}, fmt.Errorf("%q: %w", id, model.ErrUnknownTemplate)
	}
	return model.TemplateBackground(id), nil
}

// Normalize accepts a descriptor submitted directly by a client. Only
// catalog templates qualify; uploaded and generated backgrounds must come
// from SelectUpload and RequestGeneration.
func (r *Resolver) Normalize(bg model.Background) (model.Background, error) {
	if err := bg.Validate(); err != nil {
		return model.Background{}, err
	}
	if bg.Kind != model.BackgroundTemplate {
		return model.Background{}, fmt.Errorf("%s background must be uploaded or generated: %w", bg.Kind, model.ErrInvalidBackground)
	}
	return r.SelectTemplate(bg.TemplateID)
}

// SelectUpload reads an uploaded image and returns an Uploaded descriptor.
// contentType may be empty, in which case it is sniffed from the data.
func (r *Resolver) SelectUpload(ctx context.Context, src io.Reader, contentType string) (model.Background, error) {
	data, err := io.ReadAll(io.LimitReader(src, r.cfg.MaxUploadBytes+1))
	if err != nil {
		return model.Background{}, fmt.Errorf("read upload: %w: %w", model.ErrUnreadableFile, err)
	}
	if len(data) == 0 {
		return model.Background{}, fmt.Errorf("empty upload: %w", model.ErrUnreadableFile)
	}
	if int64(len(data)) > r.cfg.MaxUploadBytes {
		return model.Background{}, fmt.Errorf("upload exceeds %d bytes: %w", r.cfg.MaxUploadBytes, model.ErrUnreadableFile)
	}

	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return model.Background{}, fmt.Errorf("content type %q is not an image: %w", contentType, model.ErrUnreadableFile)
	}

	if r.images == nil {
		return model.UploadedBackground(dataURL(contentType, data)), nil
	}

	ref, err := r.images.Put(ctx, "backgrounds/"+uuid.NewString(), contentType, data)
	if err != nil {
		return model.Background{}, fmt.Errorf("store upload: %w: %w", model.ErrUnreadableFile, err)
	}
	return model.UploadedBackground(ref), nil
}

// RequestGeneration asks the generator for a design and returns a Generated
// descriptor keyed by the prompt.
func (r *Resolver) RequestGeneration(ctx context.Context, prompt string) (model.Background, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		verr := &model.ValidationError{}
		verr.Add("prompt", "is required")
		return model.Background{}, verr
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.GenerationTimeout)
	defer cancel()

	result, err := r.gen.Generate(ctx, prompt)
	if err != nil {
		return model.Background{}, fmt.Errorf("%w: %w", model.ErrGenerationFailed, err)
	}
	return model.GeneratedBackground(prompt, result), nil
}

func dataURL(contentType string, data []byte) string {
	var b bytes.Buffer
	b.WriteString("data:")
	b.WriteString(contentType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}

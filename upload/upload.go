// Package upload defines how image files reach storage and what the editor
// gets back, and provides transport storing files in a local directory.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/h2non/filetype"
	"go.uber.org/zap"

	"prosekit/schema"
)

// DefaultMaxSize limits size of uploaded file.
const DefaultMaxSize = 10 << 20

var (
	ErrNotImage = errors.New("file is not an image")
	ErrTooLarge = errors.New("file is too large")
)

// File is a file picked by user.
type File struct {
	Name string
	Body io.Reader
}

// Asset describes stored image. Empty optional fields are absent.
type Asset struct {
	Src     string
	Alt     string
	Title   string
	ImageID string
	Caption string
}

// Attrs returns image node attributes for asset.
func (a Asset) Attrs() schema.Attrs {
	optional := func(s string) any {
		if s == "" {
			return nil
		}
		return s
	}
	return schema.Attrs{
		"src":     a.Src,
		"alt":     a.Alt,
		"title":   optional(a.Title),
		"imageId": optional(a.ImageID),
		"caption": optional(a.Caption),
	}
}

// Transport stores file and describes the result.
type Transport func(ctx context.Context, f File) (Asset, error)

// Picker asks user for a file, false means user cancelled.
type Picker func() (File, bool)

// LocalTransport stores images in a directory served under BaseURL.
type LocalTransport struct {
	Dir     string
	BaseURL string
	MaxSize int64
	log     *zap.Logger
}

func NewLocalTransport(dir, baseURL string, log *zap.Logger) *LocalTransport {
	if log == nil {
		log = zap.NewNop()
	}
	return &LocalTransport{
		Dir:     dir,
		BaseURL: baseURL,
		MaxSize: DefaultMaxSize,
		log:     log.Named("upload"),
	}
}

// Transport returns t as upload collaborator.
func (t *LocalTransport) Transport() Transport {
	return t.Upload
}

// Upload checks that file content is an image, stores it under a name
// derived from the original one and returns asset pointing to it.
func (t *LocalTransport) Upload(ctx context.Context, f File) (Asset, error) {
	if f.Body == nil {
		return Asset{}, fmt.Errorf("upload %q: no content", f.Name)
	}
	data, err := io.ReadAll(io.LimitReader(f.Body, t.MaxSize+1))
	if err != nil {
		return Asset{}, fmt.Errorf("upload %q: unable to read: %w", f.Name, err)
	}
	if int64(len(data)) > t.MaxSize {
		return Asset{}, fmt.Errorf("upload %q: %w (limit %d bytes)", f.Name, ErrTooLarge, t.MaxSize)
	}

	kind, err := filetype.Match(data)
	if err != nil || !filetype.IsImage(data) || kind == filetype.Unknown {
		return Asset{}, fmt.Errorf("upload %q: %w", f.Name, ErrNotImage)
	}

	if err := ctx.Err(); err != nil {
		return Asset{}, err
	}

	base := strings.TrimSuffix(filepath.Base(f.Name), filepath.Ext(f.Name))
	id := uuid.New()
	stem := slug.Make(base)
	if stem == "" {
		stem = "image"
	}
	name := fmt.Sprintf("%s-%s.%s", stem, id.String()[:8], kind.Extension)

	if err := os.MkdirAll(t.Dir, 0755); err != nil {
		return Asset{}, fmt.Errorf("upload %q: unable to create directory: %w", f.Name, err)
	}
	if err := os.WriteFile(filepath.Join(t.Dir, name), data, 0644); err != nil {
		return Asset{}, fmt.Errorf("upload %q: unable to store: %w", f.Name, err)
	}

	src := name
	if t.BaseURL != "" {
		if src, err = url.JoinPath(t.BaseURL, name); err != nil {
			return Asset{}, fmt.Errorf("upload %q: bad base url: %w", f.Name, err)
		}
	}
	t.log.Debug("Image stored", zap.String("file", f.Name), zap.String("src", src), zap.String("mime", kind.MIME.Value))
	return Asset{Src: src, Alt: base, ImageID: id.String()}, nil
}

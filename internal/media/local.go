package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/01moynul/ecofinds-golang/internal/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// MaxImageSize is the largest accepted upload.
const MaxImageSize = 10 << 20

var (
	ErrUnsupportedType = errors.New("only jpeg, png, gif and webp images are allowed")
	ErrTooLarge        = errors.New("image exceeds the 10MB limit")
)

var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

var _ Store = (*Local)(nil)

// Local keeps images in a directory served under BaseURL/uploads.
type Local struct {
	Dir     string
	BaseURL string
}

// NewLocal creates the upload directory if it doesn't exist.
func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{Dir: dir, BaseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (l *Local) Upload(ctx context.Context, f File) (models.ProductImage, error) {
	// 1. Read the file (bounded)
	rc, err := f.Open()
	if err != nil {
		return models.ProductImage{}, fmt.Errorf("open %s: %w", f.Filename(), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxImageSize+1))
	if err != nil {
		return models.ProductImage{}, fmt.Errorf("read %s: %w", f.Filename(), err)
	}
	if len(data) > MaxImageSize {
		return models.ProductImage{}, ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return models.ProductImage{}, err
	}

	// 2. Sniff the real content type
	ext, ok := allowedTypes[mimetype.Detect(data).String()]
	if !ok {
		return models.ProductImage{}, ErrUnsupportedType
	}

	// 3. Generate a safe unique name: product_<slug>_<uuid>.<ext>
	base := slug.Make(strings.TrimSuffix(filepath.Base(f.Filename()), filepath.Ext(f.Filename())))
	if base == "" {
		base = "image"
	}
	publicID := fmt.Sprintf("product_%s_%s.%s", base, uuid.NewString(), ext)

	// 4. Save the file
	if err := os.WriteFile(filepath.Join(l.Dir, publicID), data, 0o644); err != nil {
		return models.ProductImage{}, fmt.Errorf("save %s: %w", publicID, err)
	}

	img := models.ProductImage{
		URL:      fmt.Sprintf("%s/uploads/%s", l.BaseURL, publicID),
		PublicID: publicID,
		Format:   ext,
	}
	// webp has no stdlib decoder; its dimensions stay unset
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		img.Width, img.Height = cfg.Width, cfg.Height
	}
	return img, nil
}

func (l *Local) Delete(ctx context.Context, publicID string) error {
	if publicID == "" || filepath.Base(publicID) != publicID {
		return fmt.Errorf("invalid image id %q", publicID)
	}
	err := os.Remove(filepath.Join(l.Dir, publicID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

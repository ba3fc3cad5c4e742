// Package media stores product images and hands back their public URLs.
package media

import (
	"context"
	"io"
	"log"
	"mime/multipart"

	"github.com/01moynul/ecofinds-golang/internal/models"
	"golang.org/x/sync/errgroup"
)

// File is one uploaded file.
type File interface {
	Filename() string
	Open() (io.ReadCloser, error)
}

// Store hosts images.
type Store interface {
	Upload(ctx context.Context, f File) (models.ProductImage, error)
	Delete(ctx context.Context, publicID string) error
}

type headerFile struct {
	fh *multipart.FileHeader
}

func (h headerFile) Filename() string { return h.fh.Filename }

func (h headerFile) Open() (io.ReadCloser, error) { return h.fh.Open() }

// FromHeaders adapts multipart form files.
func FromHeaders(headers ...*multipart.FileHeader) []File {
	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		if fh != nil {
			files = append(files, headerFile{fh: fh})
		}
	}
	return files
}

// UploadAll uploads the files concurrently and returns their images in
// input order. If any upload fails, the ones that succeeded are removed
// again and the first error is returned.
func UploadAll(ctx context.Context, store Store, files []File) ([]models.ProductImage, error) {
	images := make([]models.ProductImage, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			img, err := store.Upload(gctx, f)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var uploaded []string
		for _, img := range images {
			if img.PublicID != "" {
				uploaded = append(uploaded, img.PublicID)
			}
		}
		DeleteAll(context.WithoutCancel(ctx), store, uploaded)
		return nil, err
	}
	return images, nil
}

// DeleteAll removes images and only logs failures.
func DeleteAll(ctx context.Context, store Store, publicIDs []string) {
	for _, id := range publicIDs {
		if err := store.Delete(ctx, id); err != nil {
			log.Printf("WARNING: failed to delete image %s: %v", id, err)
		}
	}
}

package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"

	"github.com/sgtao/stapp-mpeg4-clipper/internal/domain/entity"
)

// ZipWriter packages selected frames into a ZIP stream. Entry names follow
// the Slide_<ordinal>.png convention so the archive is deterministic for a
// given selection.
type ZipWriter struct{}

func NewZipWriter() *ZipWriter {
	return &ZipWriter{}
}

func (z *ZipWriter) WriteZip(ctx context.Context, entries []entity.SelectionEntry, w io.Writer) error {
	zw := zip.NewWriter(w)

	for _, e := range entries {
		select {
		case <-ctx.Done():
			zw.Close()
			return ctx.Err()
		default:
		}

		f, err := zw.Create(fmt.Sprintf("Slide_%d.png", e.Ordinal))
		if err != nil {
			zw.Close()
			return fmt.Errorf("create zip entry for slide %d: %w", e.Ordinal, err)
		}
		if _, err := f.Write(e.PNG); err != nil {
			zw.Close()
			return fmt.Errorf("write zip entry for slide %d: %w", e.Ordinal, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize zip: %w", err)
	}
	return nil
}

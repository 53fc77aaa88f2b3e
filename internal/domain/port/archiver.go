package port

import (
	"context"
	"io"

	"github.com/sgtao/stapp-mpeg4-clipper/internal/domain/entity"
)

// Zipper packages selected frames into a ZIP archive with deterministic
// Slide_<ordinal>.png entry names.
type Zipper interface {
	WriteZip(ctx context.Context, entries []entity.SelectionEntry, w io.Writer) error
}

// RowWriter renders the selection listing as CSV rows.
type RowWriter interface {
	WriteRows(rows []entity.SelectionRow, w io.Writer) error
}

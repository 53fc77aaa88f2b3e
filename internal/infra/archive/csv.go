package archive

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/sgtao/stapp-mpeg4-clipper/internal/domain/entity"
)

// CSVWriter renders the selection listing with an ID,Timestamp header, the
// same shape the frames were picked in.
type CSVWriter struct{}

func NewCSVWriter() *CSVWriter {
	return &CSVWriter{}
}

func (c *CSVWriter) WriteRows(rows []entity.SelectionRow, w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"ID", "Timestamp"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write([]string{strconv.Itoa(row.Ordinal), row.Timecode}); err != nil {
			return fmt.Errorf("write csv row %d: %w", row.Ordinal, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

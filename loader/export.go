package loader

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/spektr-org/plwdash/engine"
	"github.com/spektr-org/plwdash/schema"
)

// ExportFilename is the suggested name for a filtered download.
const ExportFilename = "filtered_data.csv"

// WriteCSV writes a view as UTF-8 CSV with canonical field names as the
// header. Reading the output back with ReadCSV and Normalize gives the same
// rows.
func WriteCSV(w io.Writer, view engine.RecordView) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(schema.Default().KeyStrings()); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for i := 0; i < view.Len(); i++ {
		if err := cw.Write(engine.CellValues(view.At(i))); err != nil {
			return fmt.Errorf("write CSV row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush CSV: %w", err)
	}
	return nil
}

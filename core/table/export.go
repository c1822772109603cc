package table

import (
	"encoding/csv"
	"io"

	"github.com/pkg/errors"
)

// WriteCSV writes rows as CSV: one header line with the column labels, then one line per
// row with the rendered cells.
func WriteCSV[R Row](w io.Writer, columns []Column[R], rows []R) error {
	writer := csv.NewWriter(w)

	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.Label
	}
	if err := writer.Write(headers); err != nil {
		return errors.Wrap(err, "writing csv header")
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = col.render(row)
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrapf(err, "writing csv row %s", row.RowID())
		}
	}

	writer.Flush()
	return errors.Wrap(writer.Error(), "flushing csv")
}

package contactimport

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// StreamFile sends every row of a .csv or .xlsx file, header included, to
// the returned row channel. Both channels are closed when reading ends.
func StreamFile(ctx context.Context, path string) (<-chan []string, <-chan error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return streamXLSX(ctx, path)
	case ".csv", ".txt":
		return streamCSVFile(ctx, path)
	default:
		rowCh := make(chan []string)
		errCh := make(chan error, 1)
		close(rowCh)
		errCh <- eris.Errorf("import: unsupported file type %q", filepath.Ext(path))
		close(errCh)
		return rowCh, errCh
	}
}

func streamCSVFile(ctx context.Context, path string) (<-chan []string, <-chan error) {
	f, err := os.Open(path)
	if err != nil {
		rowCh := make(chan []string)
		errCh := make(chan error, 1)
		close(rowCh)
		errCh <- eris.Wrap(err, "csv: open file")
		close(errCh)
		return rowCh, errCh
	}
	rowCh, inner := StreamCSV(ctx, f)
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		defer f.Close() //nolint:errcheck
		for err := range inner {
			errCh <- err
		}
	}()
	return rowCh, errCh
}

// StreamCSV reads comma-separated rows from r. Fields are trimmed and rows
// may have a variable number of fields.
func StreamCSV(ctx context.Context, r io.Reader) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}
			for i, field := range record {
				record[i] = strings.TrimSpace(field)
			}
			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

func streamXLSX(ctx context.Context, path string) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		f, err := xlsx.OpenFile(path)
		if err != nil {
			errCh <- eris.Wrap(err, "xlsx: open file")
			return
		}
		if len(f.Sheets) == 0 {
			errCh <- eris.New("xlsx: workbook has no sheets")
			return
		}

		for _, row := range f.Sheets[0].Rows {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "xlsx: context cancelled")
				return
			}
			cells := make([]string, len(row.Cells))
			for j, cell := range row.Cells {
				cells[j] = strings.TrimSpace(cell.String())
			}
			select {
			case rowCh <- cells:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "xlsx: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	apperrors "github.com/x-itg/ocr/internal/errors"
)

// WriteCSV writes one row per sample index. The time column comes from the
// first series that has a sample at that index; shorter series leave empty cells.
func WriteCSV(w io.Writer, snap Snapshot) error {
	cols := snap.withData()
	if len(cols) == 0 {
		return apperrors.New(apperrors.CodeExportFailed, "no data to export")
	}

	cw := csv.NewWriter(w)
	header := make([]string, 0, len(cols)+1)
	header = append(header, "time")
	rows := 0
	for _, c := range cols {
		header = append(header, c.Name)
		rows = max(rows, c.Len())
	}
	if err := cw.Write(header); err != nil {
		return apperrors.Wrap(err, apperrors.CodeExportFailed, "write csv header")
	}

	record := make([]string, len(header))
	for i := 0; i < rows; i++ {
		record[0] = ""
		for j, c := range cols {
			if i >= c.Len() {
				record[j+1] = ""
				continue
			}
			if record[0] == "" {
				record[0] = c.Times[i].Format(TimeLayout)
			}
			record[j+1] = strconv.FormatFloat(c.Values[i], 'f', 2, 64)
		}
		if err := cw.Write(record); err != nil {
			return apperrors.Wrapf(err, apperrors.CodeExportFailed, "write csv row %d", i)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeExportFailed, "flush csv")
	}
	return nil
}

// ReadCSV parses what WriteCSV produced, interpreting times in loc.
// Every value in a row takes that row's time.
func ReadCSV(r io.Reader, loc *time.Location) (Snapshot, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return Snapshot{}, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) < 2 || header[0] != "time" {
		return Snapshot{}, fmt.Errorf("unexpected csv header %v", header)
	}

	snap := Snapshot{Series: make([]Series, len(header)-1)}
	for j, name := range header[1:] {
		snap.Series[j] = Series{ID: j + 1, Name: name, Visible: true}
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Snapshot{}, fmt.Errorf("read csv line %d: %w", line, err)
		}
		ts, err := time.ParseInLocation(TimeLayout, rec[0], loc)
		if err != nil {
			return Snapshot{}, fmt.Errorf("line %d: %w", line, err)
		}
		for j := 1; j < len(rec) && j < len(header); j++ {
			if rec[j] == "" {
				continue
			}
			v, err := strconv.ParseFloat(rec[j], 64)
			if err != nil {
				return Snapshot{}, fmt.Errorf("line %d column %q: %w", line, header[j], err)
			}
			s := &snap.Series[j-1]
			s.Times = append(s.Times, ts)
			s.Values = append(s.Values, v)
		}
	}
	return snap, nil
}

// SaveCSV writes snap to path.
func SaveCSV(path string, snap Snapshot) (err error) {
	if snap.Empty() {
		return apperrors.New(apperrors.CodeExportFailed, "no data to export")
	}
	f, err := os.Create(path)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.CodeExportFailed, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = apperrors.Wrapf(cerr, apperrors.CodeExportFailed, "close %s", path)
		}
	}()
	return WriteCSV(f, snap)
}

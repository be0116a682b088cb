// Package persist stores calibration artifacts on disk and publishes them
// to an MQTT broker.
package persist

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/CK6170/Torquecal-go/models"
)

// FileStore writes under Root:
//
//	raw/<direction>/<index>/data.csv   one file per setpoint window
//
// Tables and records go to the paths the caller passes; a ".xlsx" table
// path produces a workbook, anything else CSV.
type FileStore struct {
	Root string
}

// RawPath is where the window of one setpoint is written.
func (s FileStore) RawPath(dir models.Direction, index int) string {
	return filepath.Join(s.Root, "raw", string(dir), strconv.Itoa(index), "data.csv")
}

func (s FileStore) WriteRawWindow(w models.SampleWindow, dir models.Direction, index int) error {
	rows := make([][]string, 0, len(w.Samples)+1)
	rows = append(rows, []string{"time_s", "volts_per_volt"})
	for _, smp := range w.Samples {
		rows = append(rows, []string{formatFloat(smp.Time), formatFloat(smp.Value)})
	}
	return writeCSV(s.RawPath(dir, index), rows)
}

func (s FileStore) WriteTable(t models.Table, path string) error {
	rows := append([][]string{t.Header}, t.Rows...)
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return writeXLSX(path, t.Name, rows)
	}
	return writeCSV(path, rows)
}

func (s FileStore) WriteRecord(r models.CalibrationRecord, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding record")
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "writing %s", path)
}

func ensureDir(path string) error {
	return errors.Wrapf(os.MkdirAll(filepath.Dir(path), 0755), "creating directory for %s", path)
}

func writeCSV(path string, rows [][]string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return errors.Wrapf(f.Close(), "closing %s", path)
}

func writeXLSX(path, sheet string, rows [][]string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if sheet == "" {
		sheet = "Sheet1"
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		values := make([]interface{}, len(row))
		for j, v := range row {
			// Numbers are stored as numbers so the sheet can be charted.
			if num, err := strconv.ParseFloat(v, 64); err == nil && i > 0 {
				values[j] = num
			} else {
				values[j] = v
			}
		}
		if err := sw.SetRow(cell, values); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return errors.Wrapf(f.SaveAs(path), "writing %s", path)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

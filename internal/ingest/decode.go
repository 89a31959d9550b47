package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/AngelCh415/adreport/internal/models"
)

var ErrUnsupported = errors.New("unsupported file type (want .csv or .xlsx)")

// Decode turns an uploaded report into a Table, choosing the decoder by extension.
func Decode(name string, data []byte) (models.Table, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(name))) {
	case ".csv", ".txt":
		return DecodeCSV(bytes.NewReader(data))
	case ".xlsx", ".xlsm":
		return DecodeXLSX(bytes.NewReader(data))
	default:
		return models.Table{}, ErrUnsupported
	}
}

func DecodeCSV(r io.Reader) (models.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return models.Table{}, fmt.Errorf("read csv: %w", err)
	}
	return fromRows(rows)
}

// DecodeXLSX lee la primera hoja con valores crudos (sin formato de celda).
func DecodeXLSX(r io.Reader) (models.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return models.Table{}, fmt.Errorf("open excel: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return models.Table{}, errors.New("no sheets found")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return models.Table{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return fromRows(rows)
}

func fromRows(rows [][]string) (models.Table, error) {
	if len(rows) == 0 {
		return models.Table{}, errors.New("empty report: no header row")
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = h
	}
	t := models.Table{Columns: header, Rows: make([]models.RawRecord, 0, len(rows)-1)}
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rec := make(models.RawRecord, len(header))
		for i, h := range header {
			if _, dup := rec[h]; dup {
				continue
			}
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

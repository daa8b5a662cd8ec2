// Package bulk reads order and expense uploads from XLSX workbooks and
// writes the matching templates.
package bulk

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"zeendr/internal/core"
)

// Column layouts of the upload templates.
var (
	OrderColumns = []string{"nombre_completo", "numero_telefono", "direccion", "barrio", "metodo_pago", "fecha_hora",
		"ids_productos", "cantidad_productos", "precio_productos", "costo_domicilio"}
	ExpenseColumns = []string{"tipo_gasto", "descripcion", "monto", "fecha", "establecimiento"}
)

var (
	ErrEmptyWorkbook = errors.New("workbook has no data rows")
	ErrMissingColumn = errors.New("missing column")
)

// RowError is a problem found in one spreadsheet row. Row is the 1-based
// row number as shown by spreadsheet programs.
type RowError struct {
	Row     int    `json:"fila"`
	Message string `json:"error"`
}

// Errors collects every row problem of an upload.
type Errors []RowError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, re := range e {
		parts[i] = fmt.Sprintf("fila %d: %s", re.Row, re.Message)
	}
	return strings.Join(parts, "; ")
}

// sheet is the first worksheet of an upload with its header index.
type sheet struct {
	rows   [][]string
	header map[string]int
}

func open(r io.Reader, required []string) (*sheet, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}
	if len(rows) < 2 {
		return nil, ErrEmptyWorkbook
	}

	header := map[string]int{}
	for i, h := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range required {
		if _, ok := header[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return &sheet{rows: rows[1:], header: header}, nil
}

func (s *sheet) cell(row []string, column string) string {
	i, ok := s.header[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseTime accepts the text layouts of core.ParseTimestamp and Excel
// serial dates.
func parseTime(v string) (core.Timestamp, error) {
	ts, err := core.ParseTimestamp(v)
	if err == nil {
		return ts, nil
	}
	serial, ferr := strconv.ParseFloat(v, 64)
	if ferr != nil {
		return core.Timestamp{}, err
	}
	t, xerr := excelize.ExcelDateToTime(serial, false)
	if xerr != nil {
		return core.Timestamp{}, err
	}
	return core.NewTimestamp(t), nil
}

func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

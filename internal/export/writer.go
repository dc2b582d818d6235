package export

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// utf8BOM makes spreadsheet programs read Korean headers in CSV files correctly.
const utf8BOM = "\xEF\xBB\xBF"

// ParseFormat accepts "", "xlsx" and "csv". Empty means xlsx.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileName builds e.g. 재고현황_20250115_093000.xlsx.
func FileName(title string, format Format, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", title, now.Format("20060102_150405"), format)
}

// Write renders records, a slice of structs with csv tags, in the given format.
func Write(w io.Writer, format Format, sheet string, records interface{}) error {
	if format == FormatCSV {
		return WriteCSV(w, records)
	}
	return WriteXLSX(w, sheet, records)
}

func WriteCSV(w io.Writer, records interface{}) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return errors.Wrap(err, "write csv")
	}
	return errors.Wrap(gocsv.Marshal(records, w), "write csv")
}

// WriteXLSX writes a single sheet workbook with a header row taken from the csv tags.
func WriteXLSX(w io.Writer, sheet string, records interface{}) error {
	headers, rows, err := table(records)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheet)
	for c, h := range headers {
		f.SetCellValue(sheet, CellName(c, 1), h)
	}
	for r, row := range rows {
		for c, v := range row {
			f.SetCellValue(sheet, CellName(c, r+2), v)
		}
	}
	return errors.Wrap(f.Write(w), "write xlsx")
}

// CellName converts a zero based column and one based row to an A1 reference.
func CellName(col, row int) string {
	name := ""
	for col >= 0 {
		name = string(rune('A'+col%26)) + name
		col = col/26 - 1
	}
	return fmt.Sprintf("%s%d", name, row)
}

func table(records interface{}) ([]string, [][]interface{}, error) {
	v := reflect.ValueOf(records)
	if v.Kind() != reflect.Slice {
		return nil, nil, errors.Errorf("records must be a slice, got %T", records)
	}
	typ := v.Type().Elem()
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, nil, errors.Errorf("records must hold structs, got %s", typ)
	}

	var (
		headers []string
		fields  []int
	)
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("csv")
		if tag == "" || tag == "-" {
			continue
		}
		headers = append(headers, tag)
		fields = append(fields, i)
	}

	rows := make([][]interface{}, v.Len())
	for r := 0; r < v.Len(); r++ {
		rv := reflect.Indirect(v.Index(r))
		row := make([]interface{}, len(fields))
		for c, i := range fields {
			fv := rv.Field(i)
			if fv.Kind() == reflect.Ptr {
				if fv.IsNil() {
					row[c] = ""
					continue
				}
				fv = fv.Elem()
			}
			row[c] = fv.Interface()
		}
		rows[r] = row
	}
	return headers, rows, nil
}

package export

import (
	"io"
	"sort"
	"strings"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

// Row is one data row of an uploaded sheet keyed by header. Line is the
// spreadsheet row number, the header being line 1.
type Row struct {
	Line  int
	Cells map[string]string
}

// Get returns the first non-empty value among the given column names.
func (r Row) Get(columns ...string) string {
	for _, c := range columns {
		if v := strings.TrimSpace(r.Cells[c]); v != "" {
			return v
		}
	}
	return ""
}

// ReadXLSX reads the first sheet of a workbook. Blank rows are dropped.
func ReadXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open workbook")
	}

	sheets := f.GetSheetMap()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	indexes := make([]int, 0, len(sheets))
	for i := range sheets {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	return toRows(f.GetRows(sheets[indexes[0]])), nil
}

// ReadCSV reads a CSV upload with a header line.
func ReadCSV(r io.Reader) ([]Row, error) {
	records, err := gocsv.CSVToMaps(stripBOM(r))
	if err != nil {
		return nil, errors.Wrap(err, "read csv")
	}
	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		if isBlank(rec) {
			continue
		}
		rows = append(rows, Row{Line: i + 2, Cells: rec})
	}
	return rows, nil
}

func toRows(grid [][]string) []Row {
	if len(grid) == 0 {
		return nil
	}
	headers := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([]Row, 0, len(grid)-1)
	for i, line := range grid[1:] {
		cells := make(map[string]string, len(headers))
		for c, v := range line {
			if c < len(headers) && headers[c] != "" {
				cells[headers[c]] = v
			}
		}
		if isBlank(cells) {
			continue
		}
		rows = append(rows, Row{Line: i + 2, Cells: cells})
	}
	return rows
}

func isBlank(cells map[string]string) bool {
	for _, v := range cells {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

type bomReader struct {
	r       io.Reader
	checked bool
}

func stripBOM(r io.Reader) io.Reader {
	return &bomReader{r: r}
}

func (b *bomReader) Read(p []byte) (int, error) {
	if b.checked {
		return b.r.Read(p)
	}
	b.checked = true
	head := make([]byte, len(utf8BOM))
	n, err := io.ReadFull(b.r, head)
	head = head[:n]
	if string(head) != utf8BOM {
		b.r = io.MultiReader(strings.NewReader(string(head)), b.r)
	}
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return 0, err
	}
	return b.r.Read(p)
}

// Package dataset reads historical yield tables (CSV, XLSX or an HTML table)
// into training inputs. Header names are matched loosely so exports of the
// FAO yield dataset load without renaming columns.
package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"cropyield/entities"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
)

// ErrNoRows is returned when a table holds a header but no usable rows.
var ErrNoRows = errors.New("dataset has no rows")

// MissingColumnsError lists the required columns a header lacked.
type MissingColumnsError struct {
	Missing []string
	Header  []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("dataset missing columns %v (found %v)", e.Missing, e.Header)
}

// columns maps the canonical name to the aliases accepted for it.
var columns = []struct {
	name    string
	aliases []string
}{
	{"area", []string{"area", "country", "region"}},
	{"item", []string{"item", "crop"}},
	{"rainfall", []string{"rainfall", "average_rain_fall_mm_per_year", "rain_mm", "rainfall_mm"}},
	{"pesticides", []string{"pesticides", "pesticides_tonnes", "pesticide"}},
	{"temp", []string{"temp", "avg_temp", "temperature"}},
	{"year", []string{"year"}},
	{"yield_value", []string{"yield_value", "hg/ha_yield", "yield", "hg_ha_yield"}},
}

type row struct {
	Area       string  `csv:"area"`
	Item       string  `csv:"item"`
	Rainfall   float64 `csv:"rainfall"`
	Pesticides float64 `csv:"pesticides"`
	Temp       float64 `csv:"temp"`
	Year       int     `csv:"year"`
	YieldValue float64 `csv:"yield_value"`
}

// FormatFromName picks the format from a file extension.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".html", ".htm":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unsupported dataset file %q", name)
}

// Load reads every row of the table in r.
func Load(r io.Reader, format Format) ([]entities.TrainingInput, error) {
	var (
		table [][]string
		err   error
	)
	switch format {
	case FormatCSV:
		table, err = readCSV(r)
	case FormatXLSX:
		table, err = readXLSX(r)
	case FormatHTML:
		table, err = readHTML(r)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", format)
	}
	if len(table) == 0 {
		return nil, ErrNoRows
	}
	return decode(table)
}

func norm(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.ToLower(s)
	for _, cut := range []string{" ", "-", "_", "/"} {
		s = strings.ReplaceAll(s, cut, "")
	}
	return s
}

// decode keeps the known columns, renames them to their canonical names and
// binds the rows through gocsv.
func decode(table [][]string) ([]entities.TrainingInput, error) {
	head := table[0]
	hmap := map[string]int{}
	for i, h := range head {
		if _, dup := hmap[norm(h)]; !dup {
			hmap[norm(h)] = i
		}
	}
	findAny := func(keys ...string) int {
		for _, k := range keys {
			if idx, ok := hmap[norm(k)]; ok {
				return idx
			}
		}
		return -1
	}

	idx := make([]int, len(columns))
	canonical := make([]string, len(columns))
	var missing []string
	for i, c := range columns {
		idx[i] = findAny(c.aliases...)
		canonical[i] = c.name
		if idx[i] == -1 {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing, Header: head}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(canonical); err != nil {
		return nil, err
	}
	for _, rec := range table[1:] {
		get := func(i int) string {
			if i < 0 || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		out := make([]string, len(idx))
		blank := true
		for i, c := range idx {
			out[i] = get(c)
			if out[i] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		if err := w.Write(out); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	var rows []*row
	if err := gocsv.Unmarshal(&buf, &rows); err != nil {
		return nil, errors.Wrap(err, "bind rows")
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	out := make([]entities.TrainingInput, 0, len(rows))
	for i, r := range rows {
		if r.Area == "" || r.Item == "" {
			return nil, fmt.Errorf("row %d: area and item are required", i+1)
		}
		out = append(out, entities.TrainingInput{
			PredictionInput: entities.PredictionInput{
				Area:       r.Area,
				Item:       r.Item,
				Rainfall:   r.Rainfall,
				Pesticides: r.Pesticides,
				Temp:       r.Temp,
				Year:       r.Year,
			},
			YieldValue: r.YieldValue,
		})
	}
	return out, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return cr.ReadAll()
}

// readXLSX reads the first sheet.
func readXLSX(r io.Reader) ([][]string, error) {
	x, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer x.Close()
	sheets := x.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return x.GetRows(sheets[0])
}

// readHTML reads the first <table> of the document.
func readHTML(r io.Reader) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	var table [][]string
	doc.Find("table").First().Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th,td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		if len(cells) > 0 {
			table = append(table, cells)
		}
	})
	return table, nil
}

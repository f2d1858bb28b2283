package location

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/forecast-service/internal/domain"
)

// Dataset column headers.
const (
	ColumnZip   = "PHYSICAL ZIP"
	ColumnCity  = "PHYSICAL CITY"
	ColumnState = "PHYSICAL STATE"
	ColumnLat   = "latitude"
	ColumnLon   = "longitude"
)

// Columns lists the dataset header in file order.
var Columns = []string{ColumnZip, ColumnCity, ColumnState, ColumnLat, ColumnLon}

//go:embed data/zipdata.csv
var embeddedDataset []byte

// LoadDataset reads the postal dataset from path, or the embedded default when path is empty.
func LoadDataset(path string) ([]domain.PlaceRecord, error) {
	if path == "" {
		return ParseDataset(bytes.NewReader(embeddedDataset))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	places, err := ParseDataset(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return places, nil
}

// ParseDataset reads a CSV with a header row naming the dataset columns.
// Column order is free; extra columns are ignored. Rows keep file order.
func ParseDataset(r io.Reader) ([]domain.PlaceRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("dataset is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range Columns {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var places []domain.PlaceRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		place, err := parseRow(row, colIdx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		places = append(places, place)
	}
	return places, nil
}

func parseRow(row []string, colIdx map[string]int) (domain.PlaceRecord, error) {
	field := func(col string) string {
		return strings.TrimSpace(row[colIdx[col]])
	}

	p := domain.PlaceRecord{
		Zip:   field(ColumnZip),
		City:  field(ColumnCity),
		State: field(ColumnState),
	}
	if p.Zip == "" {
		return p, errors.New("empty ZIP")
	}
	if p.City == "" {
		return p, fmt.Errorf("ZIP %s: empty city", p.Zip)
	}

	var err error
	if p.Lat, err = strconv.ParseFloat(field(ColumnLat), 64); err != nil || p.Lat < -90 || p.Lat > 90 {
		return p, fmt.Errorf("ZIP %s: invalid latitude %q", p.Zip, field(ColumnLat))
	}
	if p.Lon, err = strconv.ParseFloat(field(ColumnLon), 64); err != nil || p.Lon < -180 || p.Lon > 180 {
		return p, fmt.Errorf("ZIP %s: invalid longitude %q", p.Zip, field(ColumnLon))
	}
	return p, nil
}

// WriteDataset writes places as CSV with the standard header.
func WriteDataset(w io.Writer, places []domain.PlaceRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, p := range places {
		row := []string{
			p.Zip,
			p.City,
			p.State,
			strconv.FormatFloat(p.Lat, 'f', 4, 64),
			strconv.FormatFloat(p.Lon, 'f', 4, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

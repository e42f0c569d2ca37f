package rating

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadInitialElo reads a ';' separated table with a header line and
// columns team;elo.
func ReadInitialElo(r io.Reader) (map[string]float64, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = 2
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading initial elo: %w", err)
	}
	table := make(map[string]float64, len(records))
	for i, rec := range records {
		if i == 0 {
			continue
		}
		elo, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("initial elo line %d: %w", i+1, err)
		}
		table[strings.TrimSpace(rec[0])] = elo
	}
	return table, nil
}

// LoadInitialElo reads the table from path. A missing file yields an empty
// table, so every team starts at the default rating.
func LoadInitialElo(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return map[string]float64{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadInitialElo(f)
}

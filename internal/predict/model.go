// Package predict fits the linear points model and produces per-round
// predictions for every player.
package predict

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/utakatalp/fantasy-forecast/internal/league"
)

const (
	FullModelFile   = "model.csv"
	SimpleModelFile = "simple_model.csv"
)

var header = []string{"constant", "player_form", "opponent_team_form", "team_delta_elo"}

// Model predicts the points of a player for one match:
//
//	Const + PlayerForm·player form + OpponentForm·opponent form + TeamDeltaElo·(team elo − opponent elo)
//
// The simple variant has OpponentForm and TeamDeltaElo set to zero.
type Model struct {
	Const        float64
	PlayerForm   float64
	OpponentForm float64
	TeamDeltaElo float64
}

// Simple reports whether the model only uses player form.
func (m Model) Simple() bool {
	return m.OpponentForm == 0 && m.TeamDeltaElo == 0
}

// Evaluate applies the model to explicit features.
func (m Model) Evaluate(playerForm, opponentForm, deltaElo float64) float64 {
	return m.Const + m.PlayerForm*playerForm + m.OpponentForm*opponentForm + m.TeamDeltaElo*deltaElo
}

// FileName is the descriptor file the model is stored in.
func (m Model) FileName() string {
	if m.Simple() {
		return SimpleModelFile
	}
	return FullModelFile
}

func (m Model) fields() []string {
	vals := []float64{m.Const, m.PlayerForm, m.OpponentForm, m.TeamDeltaElo}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return out
}

// Encode writes the header line and the coefficient line, ';' separated.
func (m Model) Encode(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.Write(m.fields()); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// Decode reads a descriptor written by Encode.
func Decode(r io.Reader) (Model, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = len(header)
	records, err := cr.ReadAll()
	if err != nil {
		return Model{}, fmt.Errorf("reading model: %w", err)
	}
	if len(records) < 2 {
		return Model{}, fmt.Errorf("%w: model descriptor has %d lines", league.ErrInvalidInput, len(records))
	}
	vals := make([]float64, len(header))
	for i, s := range records[1] {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Model{}, fmt.Errorf("parsing %s: %w", header[i], err)
		}
		vals[i] = v
	}
	return Model{Const: vals[0], PlayerForm: vals[1], OpponentForm: vals[2], TeamDeltaElo: vals[3]}, nil
}

// Save writes the model into dir under FileName.
func (m Model) Save(dir string) (string, error) {
	path := filepath.Join(dir, m.FileName())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := m.Encode(f); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, f.Close()
}

// Load reads a model descriptor file.
func Load(path string) (Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return Model{}, err
	}
	defer f.Close()
	return Decode(f)
}

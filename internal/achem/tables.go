package achem

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// File names looked up by LoadRulesDir.
const (
	ParticlesTable = "particles.csv"
	ReactionsTable = "reactions.csv"
	FissionsTable  = "fissions.csv"
)

// table is a semicolon-delimited file with a header row. Columns are found by
// header name, case-insensitively.
type table struct {
	name    string
	columns map[string]int
	rows    [][]string
}

func readTable(name string, r io.Reader, required ...string) (*table, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header row", name)
	}

	t := &table{name: name, columns: make(map[string]int), rows: records[1:]}
	for i, h := range records[0] {
		t.columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range required {
		if _, ok := t.columns[strings.ToLower(col)]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", name, col)
		}
	}
	return t, nil
}

// get returns the trimmed cell of row in column col, or "" when absent.
func (t *table) get(row []string, col string) string {
	i, ok := t.columns[strings.ToLower(col)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *table) float(line int, row []string, col string) (float64, bool, error) {
	s := t.get(row, col)
	if s == "" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s line %d: column %s: %w", t.name, line, col, err)
	}
	return f, true, nil
}

func (t *table) channel(line int, row []string, col string) (uint8, error) {
	s := t.get(row, col)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%s line %d: column %s: %w", t.name, line, col, err)
	}
	return uint8(v), nil
}

// ParseParticlesTable reads Name;Symbol;Mass;Radius;R;G;B rows with optional
// MaxEnergy, FissionStability and CollisionFissionStability columns.
func ParseParticlesTable(r io.Reader) ([]SpeciesConfig, error) {
	t, err := readTable(ParticlesTable, r, "Symbol", "Mass", "Radius")
	if err != nil {
		return nil, err
	}

	out := make([]SpeciesConfig, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		sc := SpeciesConfig{
			Symbol: t.get(row, "Symbol"),
			Name:   t.get(row, "Name"),
		}
		if sc.Mass, _, err = t.float(line, row, "Mass"); err != nil {
			return nil, err
		}
		if sc.Radius, _, err = t.float(line, row, "Radius"); err != nil {
			return nil, err
		}
		for c, col := range []string{"R", "G", "B"} {
			if sc.Color[c], err = t.channel(line, row, col); err != nil {
				return nil, err
			}
		}
		if sc.MaxEnergy, _, err = t.float(line, row, "MaxEnergy"); err != nil {
			return nil, err
		}
		if v, ok, err := t.float(line, row, "FissionStability"); err != nil {
			return nil, err
		} else if ok {
			sc.FissionStability = &v
		}
		if v, ok, err := t.float(line, row, "CollisionFissionStability"); err != nil {
			return nil, err
		} else if ok {
			sc.CollisionFissionStability = &v
		}
		out = append(out, sc)
	}
	return out, nil
}

// ParseReactionsTable reads re1;re2;product rows.
func ParseReactionsTable(r io.Reader) ([]ReactionConfig, error) {
	t, err := readTable(ReactionsTable, r, "re1", "re2", "product")
	if err != nil {
		return nil, err
	}
	out := make([]ReactionConfig, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, ReactionConfig{
			Reactants: [2]string{t.get(row, "re1"), t.get(row, "re2")},
			Product:   t.get(row, "product"),
		})
	}
	return out, nil
}

// ParseFissionsTable reads species;product1;product2 rows. Several rows for
// the same species register alternative splits, in file order.
func ParseFissionsTable(r io.Reader) ([]FissionConfig, error) {
	t, err := readTable(FissionsTable, r, "species", "product1", "product2")
	if err != nil {
		return nil, err
	}
	var out []FissionConfig
	index := make(map[string]int)
	for _, row := range t.rows {
		sp := t.get(row, "species")
		pair := [2]string{t.get(row, "product1"), t.get(row, "product2")}
		i, ok := index[sp]
		if !ok {
			i = len(out)
			index[sp] = i
			out = append(out, FissionConfig{Species: sp})
		}
		out[i].Products = append(out[i].Products, pair)
	}
	return out, nil
}

// ParseRulesTables assembles a RulesConfig from the three tables. reactions
// and fissions may be nil.
func ParseRulesTables(name string, particles, reactions, fissions io.Reader) (RulesConfig, error) {
	cfg := RulesConfig{Name: name}
	var err error
	if cfg.Species, err = ParseParticlesTable(particles); err != nil {
		return RulesConfig{}, err
	}
	if reactions != nil {
		if cfg.Reactions, err = ParseReactionsTable(reactions); err != nil {
			return RulesConfig{}, err
		}
	}
	if fissions != nil {
		if cfg.Fissions, err = ParseFissionsTable(fissions); err != nil {
			return RulesConfig{}, err
		}
	}
	return cfg, nil
}

// LoadRulesTables parses and builds rules from the three tables.
func LoadRulesTables(name string, particles, reactions, fissions io.Reader) (*Rules, error) {
	cfg, err := ParseRulesTables(name, particles, reactions, fissions)
	if err != nil {
		return nil, err
	}
	return BuildRulesFromConfig(cfg)
}

// LoadRulesDir loads particles.csv, and reactions.csv and fissions.csv when
// present, from dir. The rules are named after the directory.
func LoadRulesDir(dir string) (*Rules, error) {
	particles, err := os.Open(filepath.Join(dir, ParticlesTable))
	if err != nil {
		return nil, fmt.Errorf("cannot open particles table: %w", err)
	}
	defer particles.Close()

	optional := func(file string) (io.Reader, func(), error) {
		f, err := os.Open(filepath.Join(dir, file))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, func() {}, nil
		}
		if err != nil {
			return nil, nil, fmt.Errorf("cannot open %s: %w", file, err)
		}
		return f, func() { f.Close() }, nil
	}

	reactions, closeReactions, err := optional(ReactionsTable)
	if err != nil {
		return nil, err
	}
	defer closeReactions()

	fissions, closeFissions, err := optional(FissionsTable)
	if err != nil {
		return nil, err
	}
	defer closeFissions()

	return LoadRulesTables(filepath.Base(dir), particles, reactions, fissions)
}

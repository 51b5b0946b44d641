// Package injury loads the injury tables drawn from under the gritty damage
// rule and draws results from them.
package injury

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/targeted-damage/internal/game/dice"
)

// ErrUnknownTable is returned when a table id is not registered.
var ErrUnknownTable = errors.New("unknown injury table")

// Entry is one row of a table covering the roll range [Min, Max].
type Entry struct {
	Min    int    `yaml:"min"`
	Max    int    `yaml:"max"`
	Result string `yaml:"result"`
	// Subtable names another table to draw from when this row comes up.
	Subtable string `yaml:"subtable"`
}

// Table is a rollable injury table.
type Table struct {
	ID      string  `yaml:"id"`
	Name    string  `yaml:"name"`
	Dice    string  `yaml:"dice"`
	Entries []Entry `yaml:"entries"`
}

// Validate checks the table's dice expression and that entries do not overlap.
func (t *Table) Validate() error {
	if t.ID == "" {
		return errors.New("id must not be empty")
	}
	if _, err := dice.Parse(t.Dice); err != nil {
		return fmt.Errorf("table %q: %w", t.ID, err)
	}
	if len(t.Entries) == 0 {
		return fmt.Errorf("table %q: no entries", t.ID)
	}
	sorted := append([]Entry(nil), t.Entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })
	for i, e := range sorted {
		if e.Min > e.Max {
			return fmt.Errorf("table %q: entry %q has min %d > max %d", t.ID, e.Result, e.Min, e.Max)
		}
		if i > 0 && e.Min <= sorted[i-1].Max {
			return fmt.Errorf("table %q: entries %q and %q overlap", t.ID, sorted[i-1].Result, e.Result)
		}
	}
	return nil
}

// Lookup returns the entry covering roll.
func (t *Table) Lookup(roll int) (Entry, bool) {
	for _, e := range t.Entries {
		if roll >= e.Min && roll <= e.Max {
			return e, true
		}
	}
	return Entry{}, false
}

// Registry holds injury tables keyed by ID.
type Registry struct {
	tables map[string]*Table
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]*Table)}
}

// Register adds t, overwriting any table with the same ID.
//
// Precondition: t must pass Validate.
func (r *Registry) Register(t *Table) {
	r.tables[t.ID] = t
}

// Get returns the table for id.
func (r *Registry) Get(id string) (*Table, bool) {
	t, ok := r.tables[id]
	return t, ok
}

// LoadDirectory parses every *.yaml file in dir as one Table.
//
// Precondition: dir must be a readable directory.
// Postcondition: Every registered table passes Validate and every subtable reference resolves.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading injury table dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var t Table
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&t); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("validating %q: %w", path, err)
		}
		reg.Register(&t)
	}
	for _, t := range reg.tables {
		for _, e := range t.Entries {
			if e.Subtable == "" {
				continue
			}
			if _, ok := reg.tables[e.Subtable]; !ok {
				return nil, fmt.Errorf("table %q entry %q: subtable %q: %w", t.ID, e.Result, e.Subtable, ErrUnknownTable)
			}
		}
	}
	return reg, nil
}

// Roller is the dice capability a draw needs.
type Roller interface {
	RollExpr(expr string) (dice.RollResult, error)
}

// Result is a drawn injury.
type Result struct {
	Table string
	Roll  int
	// Text is the entry result, joined with the subtable result when one was followed.
	Text string
}

// Draw rolls table id and returns the covering entry, following one level of subtable.
//
// Postcondition: Returns ErrUnknownTable (wrapped) for an unregistered id.
func (r *Registry) Draw(id string, roller Roller) (Result, error) {
	t, ok := r.tables[id]
	if !ok {
		return Result{}, fmt.Errorf("drawing %q: %w", id, ErrUnknownTable)
	}
	entry, roll, err := drawOne(t, roller)
	if err != nil {
		return Result{}, err
	}
	res := Result{Table: t.ID, Roll: roll, Text: entry.Result}
	if entry.Subtable != "" {
		sub, ok := r.tables[entry.Subtable]
		if !ok {
			return Result{}, fmt.Errorf("drawing %q subtable %q: %w", id, entry.Subtable, ErrUnknownTable)
		}
		subEntry, _, err := drawOne(sub, roller)
		if err != nil {
			return Result{}, err
		}
		res.Text = entry.Result + ": " + subEntry.Result
	}
	return res, nil
}

func drawOne(t *Table, roller Roller) (Entry, int, error) {
	rolled, err := roller.RollExpr(t.Dice)
	if err != nil {
		return Entry{}, 0, fmt.Errorf("rolling table %q: %w", t.ID, err)
	}
	total := rolled.Total()
	entry, ok := t.Lookup(total)
	if !ok {
		return Entry{}, total, fmt.Errorf("table %q has no entry for roll %d", t.ID, total)
	}
	return entry, total, nil
}

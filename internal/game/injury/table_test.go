package injury_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/targeted-damage/internal/game/dice"
	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
	"github.com/cory-johannsen/targeted-damage/internal/game/injury"
	"github.com/cory-johannsen/targeted-damage/internal/game/report"
)

// fixedRoller returns the queued totals in order.
type fixedRoller struct {
	totals []int
	exprs  []string
}

func (f *fixedRoller) RollExpr(expr string) (dice.RollResult, error) {
	f.exprs = append(f.exprs, expr)
	if len(f.totals) == 0 {
		return dice.RollResult{}, errors.New("no rolls queued")
	}
	n := f.totals[0]
	f.totals = f.totals[1:]
	return dice.RollResult{Expression: expr, Dice: []int{n}}, nil
}

func loadReal(t *testing.T) *injury.Registry {
	t.Helper()
	reg, err := injury.LoadDirectory("../../../content/injuries")
	require.NoError(t, err)
	return reg
}

func TestLoadDirectory_RealContent(t *testing.T) {
	reg := loadReal(t)
	for _, id := range []string{"injury-table", "guts", "head"} {
		_, ok := reg.Get(id)
		assert.True(t, ok, "table %q must be present", id)
	}
}

func TestDraw_PlainEntry(t *testing.T) {
	roller := &fixedRoller{totals: []int{3}}
	res, err := loadReal(t).Draw("injury-table", roller)
	require.NoError(t, err)
	assert.Equal(t, "Arm", res.Text)
	assert.Equal(t, 3, res.Roll)
	assert.Equal(t, []string{"2d6"}, roller.exprs)
}

func TestDraw_FollowsSubtable(t *testing.T) {
	roller := &fixedRoller{totals: []int{11, 4}}
	res, err := loadReal(t).Draw("injury-table", roller)
	require.NoError(t, err)
	assert.Equal(t, "Head: Blinded", res.Text)
	assert.Equal(t, []string{"2d6", "1d6"}, roller.exprs)
}

func TestDraw_UnknownTable(t *testing.T) {
	_, err := injury.NewRegistry().Draw("missing", &fixedRoller{})
	assert.ErrorIs(t, err, injury.ErrUnknownTable)
}

func TestDraw_RollOutsideTable(t *testing.T) {
	_, err := loadReal(t).Draw("injury-table", &fixedRoller{totals: []int{13}})
	assert.Error(t, err)
}

func TestValidate_Overlap(t *testing.T) {
	tbl := &injury.Table{ID: "x", Dice: "1d6", Entries: []injury.Entry{
		{Min: 1, Max: 3, Result: "a"},
		{Min: 3, Max: 6, Result: "b"},
	}}
	assert.Error(t, tbl.Validate())
}

func TestValidate_BadDice(t *testing.T) {
	tbl := &injury.Table{ID: "x", Dice: "banana", Entries: []injury.Entry{{Min: 1, Max: 1, Result: "a"}}}
	assert.Error(t, tbl.Validate())
}

func TestLoadDirectory_DanglingSubtable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(`
id: a
dice: 1d4
entries:
  - {min: 1, max: 4, result: Ouch, subtable: nowhere}
`), 0644))
	_, err := injury.LoadDirectory(dir)
	assert.ErrorIs(t, err, injury.ErrUnknownTable)
}

func TestDrawer_PublishesInjuryReport(t *testing.T) {
	var published []report.Report
	pub := report.PublisherFunc(func(_ context.Context, r report.Report) error {
		published = append(published, r)
		return nil
	})
	d := injury.NewDrawer(loadReal(t), &fixedRoller{totals: []int{10}}, pub, zap.NewNop())

	target := &entity.Entity{ID: "bruno", Name: "Bruno"}
	require.NoError(t, d.DrawInjury(context.Background(), "evt-1", target, "injury-table"))
	require.Len(t, published, 1)
	assert.Equal(t, report.KindInjury, published[0].Kind)
	assert.Equal(t, "Bruno suffers an injury: Leg.", published[0].Text)
	assert.Equal(t, "evt-1", published[0].EventID)
}

func TestPropertyLookup_RealTableCoversRange(t *testing.T) {
	reg := loadReal(t)
	tbl, _ := reg.Get("injury-table")
	rapid.Check(t, func(t *rapid.T) {
		roll := rapid.IntRange(2, 12).Draw(t, "roll")
		_, ok := tbl.Lookup(roll)
		assert.True(t, ok, "every 2d6 total must be covered")
	})
}

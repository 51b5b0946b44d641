package report_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/targeted-damage/internal/game/report"
)

func TestWoundsText(t *testing.T) {
	assert.Equal(t, "0 Wounds", report.WoundsText(0))
	assert.Equal(t, "1 Wound", report.WoundsText(1))
	assert.Equal(t, "3 Wounds", report.WoundsText(3))
}

func TestMessage_Prompts(t *testing.T) {
	assert.Equal(t, "Valeria is about to be Shaken.", report.Message(report.MsgPromptShaken, "Valeria", 0))
	assert.Equal(t, "Valeria is about to take 2 Wounds.", report.Message(report.MsgPromptWounds, "Valeria", 2))
	assert.Equal(t, "unknown.id", report.Message("unknown.id", "Valeria", 0))
}

func TestNew_AssignsIDAndText(t *testing.T) {
	r := report.New(report.Report{Kind: report.KindShakenWithWounds, TargetName: "Bruno", Wounds: 2, Damage: 12, RolledDamage: 12})
	assert.NotEqual(t, uuid.Nil, r.ID)
	assert.Contains(t, r.Text, "Bruno is Shaken and takes 2 Wounds.")
	assert.Contains(t, r.Text, "Damage 12, AP 0")
	assert.NotContains(t, r.Text, "rolled")
}

func TestRender_Adjusted(t *testing.T) {
	r := report.Report{Kind: report.KindShaken, TargetName: "Bruno", Damage: 9, AP: 1, RolledDamage: 7, RolledAP: 0}
	assert.True(t, r.Adjusted())
	text := report.Render(r)
	assert.Contains(t, text, "Damage 9 (rolled 7)")
	assert.Contains(t, text, "AP 1 (rolled 0)")
}

func TestRender_DefenseValues(t *testing.T) {
	r := report.Report{Kind: report.KindShaken, TargetName: "Bruno", Damage: 7, RolledDamage: 7}
	shown := report.Render(r.WithDefense(6, 2, false))
	assert.Contains(t, shown, "vs Toughness 6 (2)")

	hidden := r.WithDefense(6, 2, true)
	assert.Nil(t, hidden.Toughness)
	assert.NotContains(t, report.Render(hidden), "Toughness")
}

func TestRender_Injury_SingleLine(t *testing.T) {
	text := report.Render(report.Report{Kind: report.KindInjury, TargetName: "Bruno", Injury: "Broken arm"})
	assert.Equal(t, "Bruno suffers an injury: Broken arm.", text)
}

func TestRender_AllKinds(t *testing.T) {
	for _, k := range []report.Kind{
		report.KindNoSignificantDamage, report.KindSoakedAll, report.KindShakenWithWounds,
		report.KindIncapacitated, report.KindShaken, report.KindWoundedFromShaken,
	} {
		text := report.Render(report.Report{Kind: k, TargetName: "Zed", Wounds: 1})
		assert.Contains(t, text, "Zed", "kind %q must name the target", k)
	}
}

func TestMultiPublisher_ContinuesPastFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	var got []report.Kind
	failing := report.PublisherFunc(func(context.Context, report.Report) error { return errors.New("down") })
	recording := report.PublisherFunc(func(_ context.Context, r report.Report) error {
		got = append(got, r.Kind)
		return nil
	})

	m := report.NewMultiPublisher(zap.New(core), failing, recording)
	require.NoError(t, m.Publish(context.Background(), report.New(report.Report{Kind: report.KindShaken})))
	assert.Equal(t, []report.Kind{report.KindShaken}, got)
	assert.Equal(t, 1, logs.Len())
}

func TestWriterPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := report.NewWriterPublisher(&buf)
	require.NoError(t, p.Publish(context.Background(), report.Report{Text: "hello"}))
	assert.Equal(t, "[report] hello\n", buf.String())
}

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := report.NewLogPublisher(zap.New(core))
	require.NoError(t, p.Publish(context.Background(), report.New(report.Report{Kind: report.KindSoakedAll, Target: "valeria"})))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "valeria", logs.All()[0].ContextMap()["target"])
}

func TestPropertyAdjusted_IffNumbersDiffer(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := report.Report{
			Damage:       rapid.IntRange(0, 30).Draw(t, "damage"),
			AP:           rapid.IntRange(0, 10).Draw(t, "ap"),
			RolledDamage: rapid.IntRange(0, 30).Draw(t, "rolledDamage"),
			RolledAP:     rapid.IntRange(0, 10).Draw(t, "rolledAP"),
		}
		want := r.Damage != r.RolledDamage || r.AP != r.RolledAP
		assert.Equal(t, want, r.Adjusted())
	})
}

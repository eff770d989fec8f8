package treasure

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/campaign-forge/internal/forge"
	"github.com/jwebster45206/campaign-forge/internal/project"
	"github.com/jwebster45206/campaign-forge/pkg/plugin"
)

func newTestForge(t *testing.T) (*forge.Context, *project.Project) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	proj, err := project.Create(filepath.Join(t.TempDir(), "campaign"), 42, nil, logger)
	require.NoError(t, err)
	return forge.NewContext(context.Background(), proj, "treasure", logger), proj
}

func TestGenerateDeterministicPerIndex(t *testing.T) {
	fc, _ := newTestForge(t)
	p := New()

	a, err := p.Generate(fc, "standard", 2)
	require.NoError(t, err)
	b, err := p.Generate(fc, "standard", 2)
	require.NoError(t, err)
	assert.Equal(t, a, b, "hoard 2 is a pure function of seed+tier+index")

	var run []Hoard
	for i := 3; i < 8; i++ {
		h, err := p.Generate(fc, "standard", i)
		require.NoError(t, err)
		h.Index = a.Index
		run = append(run, h)
	}
	assert.NotEqual(t, []Hoard{a, a, a, a, a}, run, "different indices draw from different streams")

	_, err = p.Generate(fc, "legendary", 0)
	assert.Error(t, err)
}

func TestGoldRangesPerTier(t *testing.T) {
	fc, _ := newTestForge(t)
	p := New()

	ranges := map[string][2]int{
		"minor":    {30, 180},
		"standard": {150, 1500},
		"major":    {800, 16000},
	}
	for tier, r := range ranges {
		for i := 0; i < 20; i++ {
			h, err := p.Generate(fc, tier, i)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, h.Gold, r[0], "%s hoard %d", tier, i)
			assert.LessOrEqual(t, h.Gold, r[1], "%s hoard %d", tier, i)
		}
	}
}

func TestRollNextAdvancesAndNotesScratchpad(t *testing.T) {
	fc, proj := newTestForge(t)
	p := New()

	first, err := p.RollNext(fc, "minor")
	require.NoError(t, err)
	assert.Equal(t, 0, first.Index)

	second, err := p.RollNext(fc, "minor")
	require.NoError(t, err)
	assert.Equal(t, 1, second.Index)
	assert.Equal(t, 2, p.st.Rolled["minor"])

	notes := proj.Pad().Search("", []string{"Loot"})
	require.Len(t, notes, 2)
	texts := notes[0].Text + "\n" + notes[1].Text
	assert.Contains(t, texts, "minor hoard #1")
	assert.Contains(t, texts, "minor hoard #2")
	assert.Equal(t, "treasure", notes[0].SourcePluginID)
}

func TestStateRoundTrip(t *testing.T) {
	fc, _ := newTestForge(t)
	p := New()

	_, err := p.RollNext(fc, "major")
	require.NoError(t, err)

	raw, err := p.SerializeState()
	require.NoError(t, err)

	restored := New()
	require.NoError(t, restored.LoadState(raw))
	assert.Equal(t, 1, restored.st.Rolled["major"])
}

func TestExportRegeneratesRolledHoards(t *testing.T) {
	fc, _ := newTestForge(t)
	p := New()

	for i := 0; i < 3; i++ {
		_, err := p.RollNext(fc, "standard")
		require.NoError(t, err)
	}

	dir := t.TempDir()
	require.NoError(t, p.ExportSessionPack(context.Background(), fc, dir))

	md, err := os.ReadFile(filepath.Join(dir, "treasure.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "standard hoard #1")
	assert.Contains(t, string(md), "standard hoard #3")

	csv, err := os.ReadFile(filepath.Join(dir, "treasure.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(csv), "tier,index,gold,gems,items")

	// A restored plugin with the same counters exports identical files.
	raw, err := p.SerializeState()
	require.NoError(t, err)
	restored := New()
	require.NoError(t, restored.LoadState(raw))

	dir2 := t.TempDir()
	require.NoError(t, restored.ExportSessionPack(context.Background(), fc, dir2))
	md2, err := os.ReadFile(filepath.Join(dir2, "treasure.md"))
	require.NoError(t, err)
	assert.Equal(t, md, md2)
}

func TestWidgetRollCommand(t *testing.T) {
	fc, _ := newTestForge(t)
	p := New()

	w, err := p.CreateWidget(fc)
	require.NoError(t, err)
	cr, ok := w.(plugin.Commander)
	require.True(t, ok, "treasure widget takes commands")

	out, err := cr.RunCommand("roll minor")
	require.NoError(t, err)
	assert.Contains(t, out, "minor hoard #1")
	assert.Equal(t, 1, p.st.Rolled["minor"])

	_, err = cr.RunCommand("roll legendary")
	assert.Error(t, err)

	_, err = cr.RunCommand("spend 100")
	assert.Error(t, err)
}

func TestHoardsCSVQuotesCommasAndQuotes(t *testing.T) {
	hoards := []Hoard{{
		Tier:  "minor",
		Index: 0,
		Gold:  42,
		Gems:  []string{"jasper"},
		Items: []string{`ring of keys, "borrowed"`},
	}}

	data, err := hoardsCSV(hoards)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"tier", "index", "gold", "gems", "items"}, records[0])
	assert.Equal(t, `ring of keys, "borrowed"`, records[1][4], "field survives a CSV round trip intact")
	assert.NotContains(t, string(data), `\"`, "no source-style escaping in the file")
}

func TestHoardSummary(t *testing.T) {
	h := Hoard{Tier: "minor", Index: 0, Gold: 120, Gems: []string{"jasper"}, Items: []string{"driftglobe"}}
	s := h.Summary()
	assert.Contains(t, s, "minor hoard #1")
	assert.Contains(t, s, "120 gp")
	assert.Contains(t, s, "jasper")
	assert.Contains(t, s, "driftglobe")
}

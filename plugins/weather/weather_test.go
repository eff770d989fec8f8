package weather

import (
	"context"
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

func newCtx(t *testing.T) plugin.Context {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	proj, err := project.Create(filepath.Join(t.TempDir(), "campaign"), 42, nil, logger)
	require.NoError(t, err)
	return forge.NewContext(context.Background(), proj, "weather", logger)
}

func TestGenerateDeterministic(t *testing.T) {
	fc := newCtx(t)
	p := New()

	a := p.Generate(fc, "2024-03-01")
	b := p.Generate(fc, "2024-03-01")
	assert.Equal(t, a, b)

	assert.Equal(t, "2024-03-01", a.Date)
	assert.GreaterOrEqual(t, a.TempC, -5)
	assert.LessOrEqual(t, a.TempC, 25)
	assert.GreaterOrEqual(t, a.WindKmh, 2)
	assert.LessOrEqual(t, a.WindKmh, 40)
}

func TestOutlookStableUnderLookahead(t *testing.T) {
	fc := newCtx(t)
	p := New()

	week, err := p.Outlook(fc, "2024-03-01", 7)
	require.NoError(t, err)
	month, err := p.Outlook(fc, "2024-03-01", 30)
	require.NoError(t, err)

	assert.Equal(t, week, month[:7], "looking further ahead never rewrites earlier days")

	_, err = p.Outlook(fc, "not-a-date", 7)
	assert.Error(t, err)
}

func TestStateRoundTrip(t *testing.T) {
	p := New()
	require.NoError(t, p.SetLastDate("2024-06-15"))
	assert.Error(t, p.SetLastDate("15/06/2024"))

	raw, err := p.SerializeState()
	require.NoError(t, err)

	restored := New()
	require.NoError(t, restored.LoadState(raw))
	assert.Equal(t, "2024-06-15", restored.st.LastDate)

	assert.Error(t, restored.LoadState([]byte(`{bad`)))
}

func TestExportSessionPack(t *testing.T) {
	fc := newCtx(t)
	p := New()
	dir := t.TempDir()

	require.NoError(t, p.ExportSessionPack(context.Background(), fc, dir))

	data, err := os.ReadFile(filepath.Join(dir, "weather_almanac.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Weather Almanac")
	assert.Contains(t, string(data), defaultDate)

	// Same seed, same almanac.
	dir2 := t.TempDir()
	require.NoError(t, p.ExportSessionPack(context.Background(), fc, dir2))
	data2, err := os.ReadFile(filepath.Join(dir2, "weather_almanac.md"))
	require.NoError(t, err)
	assert.Equal(t, data, data2)
}

func TestExportHonorsCancellation(t *testing.T) {
	fc := newCtx(t)
	p := New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, p.ExportSessionPack(ctx, fc, t.TempDir()))
}

func TestWidgetView(t *testing.T) {
	fc := newCtx(t)
	p := New()

	w, err := p.CreateWidget(fc)
	require.NoError(t, err)
	assert.Equal(t, "Weather", w.Title())
	assert.Contains(t, w.View(80), defaultDate)
}

func TestWidgetDateCommand(t *testing.T) {
	fc := newCtx(t)
	p := New()

	w, err := p.CreateWidget(fc)
	require.NoError(t, err)
	cr, ok := w.(plugin.Commander)
	require.True(t, ok, "weather widget takes commands")

	out, err := cr.RunCommand("date 2024-06-15")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-06-15")
	assert.Equal(t, "2024-06-15", p.st.LastDate)
	assert.Contains(t, w.View(80), "2024-06-15")

	_, err = cr.RunCommand("date 15/06/2024")
	assert.Error(t, err)
	assert.Equal(t, "2024-06-15", p.st.LastDate, "bad input leaves the anchor alone")

	_, err = cr.RunCommand("forecast")
	assert.Error(t, err)
}

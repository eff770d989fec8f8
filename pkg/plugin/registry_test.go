package plugin

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlugin struct {
	meta Meta
}

func (f *fakePlugin) Meta() Meta { return f.meta }

func (f *fakePlugin) CreateWidget(ctx Context) (Widget, error) {
	return nil, nil
}

type fakeStatefulPlugin struct {
	fakePlugin
	state json.RawMessage
}

func (f *fakeStatefulPlugin) SerializeState() (json.RawMessage, error) { return f.state, nil }
func (f *fakeStatefulPlugin) LoadState(raw json.RawMessage) error {
	f.state = raw
	return nil
}

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestRegistryDuplicateIDLastWins(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(testLogger(&buf))

	first := &fakePlugin{meta: Meta{ID: "weather", Name: "Weather", Version: "1.0.0"}}
	second := &fakePlugin{meta: Meta{ID: "weather", Name: "Weather", Version: "2.0.0"}}

	require.NoError(t, r.Register(first))
	require.NoError(t, r.Register(second))

	assert.Len(t, r.List(), 1, "exactly one entry after duplicate registration")
	assert.Same(t, second, r.Get("weather"), "second registration wins")
	assert.Contains(t, buf.String(), "Duplicate plugin id")
}

func TestRegistryRejectsReservedAndEmptyIDs(t *testing.T) {
	r := NewRegistry(testLogger(&bytes.Buffer{}))

	err := r.Register(&fakePlugin{meta: Meta{ID: "_scratchpad", Name: "Evil"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserved")

	err = r.Register(&fakePlugin{meta: Meta{Name: "Anonymous"}})
	require.Error(t, err)

	assert.Empty(t, r.List())
}

func TestRegistryListOrdering(t *testing.T) {
	r := NewRegistry(testLogger(&bytes.Buffer{}))

	for _, m := range []Meta{
		{ID: "treasure", Name: "Treasure Hoard", Category: "Loot"},
		{ID: "weather", Name: "Weather", Category: "Almanac"},
		{ID: "encounters", Name: "Encounters", Category: "Loot"},
	} {
		require.NoError(t, r.Register(&fakePlugin{meta: m}))
	}

	var ids []string
	for _, p := range r.List() {
		ids = append(ids, p.Meta().ID)
	}
	assert.Equal(t, []string{"weather", "encounters", "treasure"}, ids,
		"ordered by category then name")
}

func TestCapabilitiesOf(t *testing.T) {
	bare := &fakePlugin{meta: Meta{ID: "bare"}}
	assert.Equal(t, []Capability{CapWidget}, CapabilitiesOf(bare))

	stateful := &fakeStatefulPlugin{fakePlugin: fakePlugin{meta: Meta{ID: "stateful"}}}
	assert.Contains(t, CapabilitiesOf(stateful), CapState)
	assert.NotContains(t, CapabilitiesOf(stateful), CapExport)
}

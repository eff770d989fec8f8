package scratchpad

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddFillsDefaults(t *testing.T) {
	p := NewPad()

	e := p.Add(Entry{Text: "The innkeeper knows about the ruins", Tags: []string{" NPC ", "", "Rumor"}})

	assert.NotEmpty(t, e.ID)
	assert.False(t, e.CreatedAt.IsZero())
	assert.Equal(t, []string{"NPC", "Rumor"}, e.Tags, "tags trimmed, blanks dropped")
	assert.Equal(t, 1, p.Len())
}

func TestSearchFilters(t *testing.T) {
	p := NewPad()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	p.Add(Entry{Text: "Storm front moving in from the coast", Tags: []string{"Weather"}, SourcePluginID: "weather", CreatedAt: base})
	p.Add(Entry{Text: "Hoard guarded by a STORM giant", Tags: []string{"Loot", "Danger"}, SourcePluginID: "treasure", CreatedAt: base.Add(time.Hour)})
	p.Add(Entry{Text: "Quiet day in the village", Tags: []string{"Weather"}, CreatedAt: base.Add(2 * time.Hour)})

	tests := []struct {
		name      string
		query     string
		tags      []string
		wantTexts []string
	}{
		{
			name:      "no filters returns all, most recent first",
			wantTexts: []string{"Quiet day in the village", "Hoard guarded by a STORM giant", "Storm front moving in from the coast"},
		},
		{
			name:      "text match is case-insensitive",
			query:     "storm",
			wantTexts: []string{"Hoard guarded by a STORM giant", "Storm front moving in from the coast"},
		},
		{
			name:      "tag filter",
			tags:      []string{"weather"},
			wantTexts: []string{"Quiet day in the village", "Storm front moving in from the coast"},
		},
		{
			name:      "text AND tags",
			query:     "storm",
			tags:      []string{"Weather"},
			wantTexts: []string{"Storm front moving in from the coast"},
		},
		{
			name:      "all tags must match",
			tags:      []string{"Loot", "Danger"},
			wantTexts: []string{"Hoard guarded by a STORM giant"},
		},
		{
			name:  "no match",
			query: "dragon",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, e := range p.Search(tt.query, tt.tags) {
				got = append(got, e.Text)
			}
			assert.Equal(t, tt.wantTexts, got)
		})
	}
}

func TestRemove(t *testing.T) {
	p := NewPad()
	e := p.Add(Entry{Text: "disposable"})
	p.Add(Entry{Text: "keeper"})

	assert.True(t, p.Remove(e.ID))
	assert.False(t, p.Remove(e.ID), "second remove reports missing")
	assert.Equal(t, 1, p.Len())
}

func TestSerializeRoundTrip(t *testing.T) {
	p := NewPad()
	p.Add(Entry{Text: "Größe matters, said the 預言者", Tags: []string{"Lore"}, SourcePluginID: "pantheon"})
	p.Add(Entry{Text: "second"})

	raw, err := p.Serialize()
	require.NoError(t, err)

	restored, err := Load(raw)
	require.NoError(t, err)
	assert.Equal(t, p.Entries(), restored.Entries())
}

func TestLoadEmpty(t *testing.T) {
	p, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Len())

	p, err = Load([]byte(`[]`))
	require.NoError(t, err)
	assert.Equal(t, 0, p.Len())

	_, err = Load([]byte(`{broken`))
	assert.Error(t, err)
}

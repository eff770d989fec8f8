// Package treasure generates deterministic treasure hoards by challenge
// tier. Hoards are numbered per tier; hoard n of a tier is derived from its
// own stream, so re-rolling hoard 3 never changes hoard 2.
package treasure

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jwebster45206/campaign-forge/pkg/plugin"
	"github.com/jwebster45206/campaign-forge/pkg/seed"
)

const pluginID = "treasure"

// Tiers in ascending order of generosity.
var Tiers = []string{"minor", "standard", "major"}

// Hoard is one generated treasure parcel.
type Hoard struct {
	Tier  string   `json:"tier"`
	Index int      `json:"index"`
	Gold  int      `json:"gold"`
	Gems  []string `json:"gems,omitempty"`
	Items []string `json:"items,omitempty"`
}

// Summary is the one-line description used for scratchpad notes and tables.
func (h Hoard) Summary() string {
	parts := []string{fmt.Sprintf("%d gp", h.Gold)}
	if len(h.Gems) > 0 {
		parts = append(parts, strings.Join(h.Gems, ", "))
	}
	if len(h.Items) > 0 {
		parts = append(parts, strings.Join(h.Items, ", "))
	}
	return fmt.Sprintf("%s hoard #%d: %s", h.Tier, h.Index+1, strings.Join(parts, "; "))
}

var gemTable = []string{
	"moonstone", "jasper", "bloodstone", "star sapphire",
	"fire opal", "black pearl", "chipped emerald",
}

var itemTable = []string{
	"potion of healing", "scroll of fog cloud", "silvered dagger",
	"cloak of elvenkind", "bag of holding", "driftglobe",
	"boots of striding", "wand of secrets",
}

type state struct {
	// Rolled counts hoards generated per tier; it is also the next index.
	Rolled map[string]int `json:"rolled"`
}

// Plugin implements the treasure hoard generator.
type Plugin struct {
	st   state
	last *Hoard
}

var (
	_ plugin.Plugin          = (*Plugin)(nil)
	_ plugin.StateSerializer = (*Plugin)(nil)
	_ plugin.PackExporter    = (*Plugin)(nil)
)

func New() *Plugin {
	return &Plugin{st: state{Rolled: make(map[string]int)}}
}

func (p *Plugin) Meta() plugin.Meta {
	return plugin.Meta{
		ID:          pluginID,
		Name:        "Treasure Hoard",
		Version:     "1.0.2",
		Category:    "Loot",
		Description: "Tiered treasure hoards with gems and minor magic.",
	}
}

// Generate returns hoard number index of the given tier. Pure function of
// the project seed, tier, and index.
func (p *Plugin) Generate(fc plugin.Context, tier string, index int) (Hoard, error) {
	if !validTier(tier) {
		return Hoard{}, fmt.Errorf("unknown hoard tier %q", tier)
	}

	rng := fc.DeriveRNG("hoard", tier, strconv.Itoa(index))
	return rollHoard(rng, tier, index), nil
}

// RollNext generates the next hoard of a tier, advances the counter, and
// drops a note on the shared scratchpad.
func (p *Plugin) RollNext(fc plugin.Context, tier string) (Hoard, error) {
	h, err := p.Generate(fc, tier, p.st.Rolled[tier])
	if err != nil {
		return Hoard{}, err
	}
	p.st.Rolled[tier]++
	p.last = &h

	if err := fc.ScratchpadAdd(h.Summary(), []string{"Loot", tier}); err != nil {
		fc.Log(slog.LevelWarn, "Failed to note hoard on scratchpad", "error", err)
	}
	return h, nil
}

func rollHoard(rng *seed.Stream, tier string, index int) Hoard {
	h := Hoard{Tier: tier, Index: index}

	switch tier {
	case "minor":
		h.Gold = rng.Roll(3, 6) * 10
	case "standard":
		h.Gold = rng.Roll(6, 10) * 25
	case "major":
		h.Gold = rng.Roll(8, 20) * 100
	}

	gems := 0
	switch tier {
	case "standard":
		gems = rng.IntN(3)
	case "major":
		gems = 1 + rng.IntN(4)
	}
	for i := 0; i < gems; i++ {
		h.Gems = append(h.Gems, seed.Pick(rng, gemTable))
	}

	// Magic items get rarer down the tiers.
	chance := map[string]int{"minor": 20, "standard": 8, "major": 3}[tier]
	if rng.IntN(chance) == 0 {
		h.Items = append(h.Items, seed.Pick(rng, itemTable))
	}
	if tier == "major" {
		h.Items = append(h.Items, seed.Pick(rng, itemTable))
	}

	return h
}

func (p *Plugin) CreateWidget(fc plugin.Context) (plugin.Widget, error) {
	return &widget{plugin: p, fc: fc}, nil
}

func (p *Plugin) SerializeState() (json.RawMessage, error) {
	return json.Marshal(p.st)
}

func (p *Plugin) LoadState(raw json.RawMessage) error {
	var st state
	if err := json.Unmarshal(raw, &st); err != nil {
		return fmt.Errorf("unmarshal treasure state: %w", err)
	}
	if st.Rolled == nil {
		st.Rolled = make(map[string]int)
	}
	p.st = st
	return nil
}

// ExportSessionPack regenerates every hoard rolled so far (a pure function
// of the seed and the counters) and writes a Markdown ledger plus a CSV.
func (p *Plugin) ExportSessionPack(ctx context.Context, fc plugin.Context, dir string) error {
	var hoards []Hoard
	for _, tier := range Tiers {
		for i := 0; i < p.st.Rolled[tier]; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			h, err := p.Generate(fc, tier, i)
			if err != nil {
				return err
			}
			hoards = append(hoards, h)
		}
	}

	var md strings.Builder
	md.WriteString("# Treasure Ledger\n\n")
	for _, h := range hoards {
		fmt.Fprintf(&md, "- %s\n", h.Summary())
	}
	if err := plugin.WriteArtifact(dir, "treasure.md", []byte(md.String())); err != nil {
		return err
	}

	data, err := hoardsCSV(hoards)
	if err != nil {
		return err
	}
	return plugin.WriteArtifact(dir, "treasure.csv", data)
}

func hoardsCSV(hoards []Hoard) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{{"tier", "index", "gold", "gems", "items"}}
	for _, h := range hoards {
		records = append(records, []string{
			h.Tier,
			strconv.Itoa(h.Index),
			strconv.Itoa(h.Gold),
			strings.Join(h.Gems, "|"),
			strings.Join(h.Items, "|"),
		})
	}
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write hoard csv: %w", err)
	}
	return buf.Bytes(), nil
}

func validTier(tier string) bool {
	for _, t := range Tiers {
		if t == tier {
			return true
		}
	}
	return false
}

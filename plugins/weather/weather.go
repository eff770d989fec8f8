// Package weather generates deterministic daily weather for a campaign
// calendar. Each day derives its own stream, so looking ahead never shifts
// the forecast for days already shown at the table.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jwebster45206/campaign-forge/pkg/plugin"
	"github.com/jwebster45206/campaign-forge/pkg/seed"
)

const (
	pluginID    = "weather"
	dateLayout  = "2006-01-02"
	defaultDate = "2024-03-01"
	outlookDays = 7
)

// Report is one day's weather.
type Report struct {
	Date      string `json:"date"`
	Condition string `json:"condition"`
	TempC     int    `json:"temp_c"`
	WindKmh   int    `json:"wind_kmh"`
	Omen      string `json:"omen,omitempty"` // rare color for the GM to drop in
}

type state struct {
	LastDate string `json:"last_date"`
}

var conditions = []string{
	"clear skies", "overcast", "light rain", "driving rain",
	"fog banks", "thunderstorm", "snow flurries", "biting wind",
}

var omens = []string{
	"birds flying in circles", "a green tint to the clouds",
	"distant bells with no source", "frost in midsummer shapes",
}

// Plugin implements the weather generator.
type Plugin struct {
	st state
}

var (
	_ plugin.Plugin          = (*Plugin)(nil)
	_ plugin.StateSerializer = (*Plugin)(nil)
	_ plugin.PackExporter    = (*Plugin)(nil)
)

func New() *Plugin {
	return &Plugin{st: state{LastDate: defaultDate}}
}

func (p *Plugin) Meta() plugin.Meta {
	return plugin.Meta{
		ID:          pluginID,
		Name:        "Weather",
		Version:     "1.1.0",
		Category:    "Almanac",
		Description: "Deterministic daily weather with a weekly outlook.",
	}
}

// Generate returns the weather for one calendar day. The same project seed
// and date always yield the same report.
func (p *Plugin) Generate(fc plugin.Context, date string) Report {
	rng := fc.DeriveRNG("daily", date)
	return rollDay(rng, date)
}

func rollDay(rng *seed.Stream, date string) Report {
	r := Report{
		Date:      date,
		Condition: seed.Pick(rng, conditions),
		TempC:     rng.IntN(31) - 5, // -5..25
		WindKmh:   rng.Roll(2, 20),  // 2..40
	}
	if rng.IntN(20) == 0 {
		r.Omen = seed.Pick(rng, omens)
	}
	return r
}

// Outlook returns reports for n consecutive days starting at from.
func (p *Plugin) Outlook(fc plugin.Context, from string, n int) ([]Report, error) {
	start, err := time.Parse(dateLayout, from)
	if err != nil {
		return nil, fmt.Errorf("bad start date %q: %w", from, err)
	}

	out := make([]Report, 0, n)
	for i := 0; i < n; i++ {
		date := start.AddDate(0, 0, i).Format(dateLayout)
		out = append(out, p.Generate(fc, date))
	}
	return out, nil
}

func (p *Plugin) CreateWidget(fc plugin.Context) (plugin.Widget, error) {
	fc.Log(slog.LevelDebug, "Weather widget created", "last_date", p.st.LastDate)
	return &widget{plugin: p, fc: fc}, nil
}

func (p *Plugin) SerializeState() (json.RawMessage, error) {
	return json.Marshal(p.st)
}

func (p *Plugin) LoadState(raw json.RawMessage) error {
	var st state
	if err := json.Unmarshal(raw, &st); err != nil {
		return fmt.Errorf("unmarshal weather state: %w", err)
	}
	if st.LastDate == "" {
		st.LastDate = defaultDate
	}
	p.st = st
	return nil
}

// ExportSessionPack writes a one-week Markdown almanac starting from the
// last viewed date.
func (p *Plugin) ExportSessionPack(ctx context.Context, fc plugin.Context, dir string) error {
	reports, err := p.Outlook(fc, p.st.LastDate, outlookDays)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("# Weather Almanac\n\n")
	b.WriteString("| Date | Condition | Temp | Wind |\n")
	b.WriteString("|------|-----------|------|------|\n")
	for _, r := range reports {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(&b, "| %s | %s | %d°C | %d km/h |\n", r.Date, r.Condition, r.TempC, r.WindKmh)
		if r.Omen != "" {
			fmt.Fprintf(&b, "| | *omen: %s* | | |\n", r.Omen)
		}
	}

	return plugin.WriteArtifact(dir, "weather_almanac.md", []byte(b.String()))
}

// SetLastDate moves the widget's anchor date, reached through the widget's
// "date" command.
func (p *Plugin) SetLastDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return fmt.Errorf("bad date %q: %w", date, err)
	}
	p.st.LastDate = date
	return nil
}

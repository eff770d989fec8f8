// Package scratchpad is the shared, tagged note store visible to all
// plugins and the user. Entries are appended by plugins (via their Forge
// Context) or by direct user action and are never auto-deleted.
package scratchpad

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// ReservedStateID is the module-state slot the scratchpad persists under.
// Ordinary plugins cannot register ids with this prefix.
const ReservedStateID = "_scratchpad"

// Entry is one note.
type Entry struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	Tags           []string  `json:"tags"`
	SourcePluginID string    `json:"source_plugin_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Pad is an ordered collection of entries. Not safe for concurrent use;
// the host mutates it from one logical thread only.
type Pad struct {
	entries []Entry
	fold    cases.Caser
}

func NewPad() *Pad {
	return &Pad{fold: cases.Fold()}
}

// Load rebuilds a pad from its persisted JSON array.
func Load(raw json.RawMessage) (*Pad, error) {
	p := NewPad()
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p.entries); err != nil {
		return nil, fmt.Errorf("unmarshal scratchpad: %w", err)
	}
	return p, nil
}

// Serialize returns the pad as the JSON array stored under ReservedStateID.
func (p *Pad) Serialize() (json.RawMessage, error) {
	data, err := json.Marshal(p.entries)
	if err != nil {
		return nil, fmt.Errorf("marshal scratchpad: %w", err)
	}
	return data, nil
}

// Add appends e, filling in ID and CreatedAt when unset, and returns the
// stored entry. Blank tags are dropped.
func (p *Pad) Add(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	tags := make([]string, 0, len(e.Tags))
	for _, tag := range e.Tags {
		if t := strings.TrimSpace(tag); t != "" {
			tags = append(tags, t)
		}
	}
	e.Tags = tags

	p.entries = append(p.entries, e)
	return e
}

// Remove deletes the entry with the given id. Reports whether it existed.
func (p *Pad) Remove(id string) bool {
	for i, e := range p.entries {
		if e.ID == id {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of entries.
func (p *Pad) Len() int {
	return len(p.entries)
}

// Entries returns all entries in insertion order.
func (p *Pad) Entries() []Entry {
	return append([]Entry(nil), p.entries...)
}

// Search filters entries by free text and tags, ANDed together: an entry
// matches when its text contains query (case-insensitively) and it carries
// every supplied tag. Empty filters match everything. Results are most
// recent first.
func (p *Pad) Search(query string, tags []string) []Entry {
	query = p.fold.String(strings.TrimSpace(query))

	var out []Entry
	for _, e := range p.entries {
		if query != "" && !strings.Contains(p.fold.String(e.Text), query) {
			continue
		}
		if !p.hasAllTags(e, tags) {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (p *Pad) hasAllTags(e Entry, tags []string) bool {
	for _, want := range tags {
		want = p.fold.String(strings.TrimSpace(want))
		if want == "" {
			continue
		}
		found := false
		for _, have := range e.Tags {
			if p.fold.String(have) == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

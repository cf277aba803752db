package device

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jhhhsong/exifmgr/internal/tzresolve"
)

// ErrNotFound signals that no registered device matches the queried identity.
// An identity shared by several entries that only differ by author is also
// reported as not found when the query carries no author; guessing between
// twin cameras would silently misfile photos.
var ErrNotFound = errors.New("device not registered")

// Key identifies a physical device by its metadata fields. Matching is
// case-insensitive and whitespace-trimmed; Author is optional and only used
// to tell apart units sharing one make/model pair.
type Key struct {
	Make   string
	Model  string
	Author string
}

func (k Key) String() string {
	s := fmt.Sprintf("%s/%s", k.Make, k.Model)
	if k.Author != "" {
		s += " by " + k.Author
	}
	return s
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IntervalSpec is the plain-data form of one timezone assignment, as supplied
// by the configuration collaborator. Zero times mean unbounded.
type IntervalSpec struct {
	Start time.Time
	End   time.Time
	Zone  string
}

// Entry is one device-configuration record used to build the registry.
type Entry struct {
	Make      string
	Model     string
	Author    string
	Abbr      string
	Intervals []IntervalSpec
}

// Record is a registered device: its filename abbreviation and its timezone
// assignment history, sorted by start with unbounded starts first.
type Record struct {
	Key     Key
	Abbr    string
	History []tzresolve.Interval
}

// HistoryAt returns the assignment covering the absolute instant, if any.
// Gaps between assignments mean the zone is unknown for that period.
func (r *Record) HistoryAt(t time.Time) (tzresolve.Interval, bool) {
	idx := sort.Search(len(r.History), func(i int) bool {
		start := r.History[i].Start
		return !start.IsZero() && start.After(t)
	})
	// idx is the first interval starting after t; the one before it is the
	// only possible cover.
	if idx == 0 {
		return tzresolve.Interval{}, false
	}
	iv := r.History[idx-1]
	if iv.Contains(t) {
		return iv, true
	}
	return tzresolve.Interval{}, false
}

// Registry holds device records for identity lookups. It is constructed once
// per run and read-only afterwards, so concurrent workers share it without
// locking.
type Registry struct {
	byIdentity map[string][]*Record
	byModel    map[string][]*Record // entries registered without a make
	byAbbr     map[string]*Record
}

// NewRegistry validates configuration entries and builds the lookup tables.
// Abbreviations must be unique and each device's assignments must be
// non-overlapping once sorted by start.
func NewRegistry(entries []Entry) (*Registry, error) {
	reg := &Registry{
		byIdentity: make(map[string][]*Record),
		byModel:    make(map[string][]*Record),
		byAbbr:     make(map[string]*Record),
	}

	for _, e := range entries {
		abbr := strings.TrimSpace(e.Abbr)
		if abbr == "" {
			return nil, fmt.Errorf("device %s/%s: abbreviation is empty", e.Make, e.Model)
		}
		if prev, dup := reg.byAbbr[abbr]; dup {
			return nil, fmt.Errorf("abbreviation %q used by both %s and %s/%s", abbr, prev.Key, e.Make, e.Model)
		}
		if strings.TrimSpace(e.Model) == "" {
			return nil, fmt.Errorf("device entry %q: model is empty", abbr)
		}

		history, err := buildHistory(abbr, e.Intervals)
		if err != nil {
			return nil, err
		}

		rec := &Record{
			Key: Key{
				Make:   strings.TrimSpace(e.Make),
				Model:  strings.TrimSpace(e.Model),
				Author: strings.TrimSpace(e.Author),
			},
			Abbr:    abbr,
			History: history,
		}

		id := identity(rec.Key.Make, rec.Key.Model)
		for _, existing := range reg.byIdentity[id] {
			if norm(existing.Key.Author) == norm(rec.Key.Author) {
				return nil, fmt.Errorf("duplicate device entry for %s", rec.Key)
			}
		}
		reg.byAbbr[abbr] = rec
		reg.byIdentity[id] = append(reg.byIdentity[id], rec)
		if rec.Key.Make == "" {
			reg.byModel[norm(rec.Key.Model)] = append(reg.byModel[norm(rec.Key.Model)], rec)
		}
	}

	return reg, nil
}

func buildHistory(abbr string, specs []IntervalSpec) ([]tzresolve.Interval, error) {
	history := make([]tzresolve.Interval, 0, len(specs))
	for _, spec := range specs {
		zone, err := tzresolve.LoadZone(spec.Zone)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", abbr, err)
		}
		if !spec.Start.IsZero() && !spec.End.IsZero() && !spec.Start.Before(spec.End) {
			return nil, fmt.Errorf("device %q: assignment %s ends before it starts", abbr, zone.Name)
		}
		history = append(history, tzresolve.Interval{
			Start: spec.Start,
			End:   spec.End,
			Zone:  zone,
		})
	}

	sort.SliceStable(history, func(i, j int) bool {
		a, b := history[i].Start, history[j].Start
		if a.IsZero() || b.IsZero() {
			return a.IsZero() && !b.IsZero()
		}
		return a.Before(b)
	})

	for i := 1; i < len(history); i++ {
		prev, cur := history[i-1], history[i]
		// A zero Start means unbounded on the left; two of those always
		// overlap, as does an unbounded End before a later assignment.
		if cur.Start.IsZero() || prev.End.IsZero() || prev.End.After(cur.Start) {
			return nil, fmt.Errorf("device %q: assignments %s and %s overlap", abbr, prev, cur)
		}
	}
	return history, nil
}

// Lookup resolves a metadata identity to a device record. Exact
// (make, model) first; an author in the query narrows twin entries, and an
// entry registered without an author acts as the fallback for its pair.
func (r *Registry) Lookup(k Key) (*Record, error) {
	candidates := r.byIdentity[identity(k.Make, k.Model)]
	if len(candidates) == 0 {
		// Entries configured without a make match on model alone.
		candidates = r.byModel[norm(k.Model)]
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%s: %w", k, ErrNotFound)
	}

	if author := norm(k.Author); author != "" {
		var fallback *Record
		for _, rec := range candidates {
			switch norm(rec.Key.Author) {
			case author:
				return rec, nil
			case "":
				fallback = rec
			}
		}
		if fallback != nil {
			return fallback, nil
		}
		return nil, fmt.Errorf("%s: no entry for this author: %w", k, ErrNotFound)
	}

	if len(candidates) > 1 {
		return nil, fmt.Errorf("%s: %d entries differ only by author: %w", k, len(candidates), ErrNotFound)
	}
	return candidates[0], nil
}

// ByAbbr returns the record owning a filename abbreviation.
func (r *Registry) ByAbbr(abbr string) (*Record, bool) {
	rec, ok := r.byAbbr[strings.TrimSpace(abbr)]
	return rec, ok
}

// Len reports the number of registered devices.
func (r *Registry) Len() int { return len(r.byAbbr) }

func identity(maker, model string) string {
	return norm(maker) + "\x00" + norm(model)
}

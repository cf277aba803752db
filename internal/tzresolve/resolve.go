package tzresolve

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Reason classifies why a naive timestamp could not be resolved automatically.
type Reason string

const (
	// ReasonDSTFold marks a local time that occurred twice because of a
	// backward clock shift inside a single assignment window.
	ReasonDSTFold Reason = "dst-fold"
	// ReasonDSTGap marks a local time skipped by a forward clock shift.
	ReasonDSTGap Reason = "dst-gap"
	// ReasonZoneChange marks a local time explained by more than one
	// assignment window (the device changed zones around that moment).
	ReasonZoneChange Reason = "zone-change"
	// ReasonMissingHistory marks a local time no assignment window explains.
	ReasonMissingHistory Reason = "missing-history"
)

// Interval states that a device observed a timezone during a period. Bounds
// are absolute instants; a zero time means unbounded on that side.
type Interval struct {
	Start time.Time
	End   time.Time
	Zone  Zone
}

// Contains reports whether the absolute instant falls in [Start, End).
func (iv Interval) Contains(t time.Time) bool {
	if !iv.Start.IsZero() && t.Before(iv.Start) {
		return false
	}
	if !iv.End.IsZero() && !t.Before(iv.End) {
		return false
	}
	return true
}

func (iv Interval) String() string {
	bound := func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.UTC().Format("2006-01-02T15:04Z")
	}
	return fmt.Sprintf("%s (%s, %s)", iv.Zone.Name, bound(iv.Start), bound(iv.End))
}

// Candidate is one plausible absolute reading of a naive local timestamp.
type Candidate struct {
	Time   time.Time // absolute instant
	Zone   string    // zone identifier that produced the reading
	Abbrev string    // zone abbreviation at that instant (PST, PDT, ...)
	// Window is the index of the history interval that admitted the
	// candidate, or -1 when it came from an override or a gap bracket.
	Window int
}

// Ambiguity describes why automatic resolution stopped, as a value rather
// than control flow. Candidates carry every plausible absolute reading so a
// chooser (interactive or otherwise) can pick exactly one.
type Ambiguity struct {
	Reason     Reason
	Local      time.Time
	Candidates []Candidate
}

// Describe renders the ambiguity for logs and prompts.
func (a *Ambiguity) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s at %s", a.Reason, a.Local.Format("2006-01-02 15:04:05"))
	for i, c := range a.Candidates {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s as %s", c.Time.UTC().Format(time.RFC3339), c.Zone)
		if c.Abbrev != "" && c.Abbrev != c.Zone {
			fmt.Fprintf(&b, " (%s)", c.Abbrev)
		}
	}
	return b.String()
}

// Resolution is the outcome of resolving one naive timestamp. Exactly one of
// Time (resolved) or Ambiguity is meaningful.
type Resolution struct {
	Time      time.Time
	Ambiguity *Ambiguity
}

// OK reports whether the timestamp resolved to a single instant.
func (r Resolution) OK() bool { return r.Ambiguity == nil }

// clock shifts never exceed a day; probing offsets this far on both sides of
// the naive reading observes every offset the zone could have applied
const probeWindow = 14 * time.Hour

// Resolve converts a naive local timestamp into an absolute instant using the
// device's assignment history. A non-nil override zone always wins and skips
// the history entirely, though it can still be fold-ambiguous in itself.
//
// A history interval admits a candidate only when the naive time, interpreted
// in the interval's zone, lands inside the interval's own absolute bounds.
// The interpretation depends on the zone under test, so this is a
// consistency check rather than plain range containment.
func Resolve(history []Interval, local time.Time, override *Zone) Resolution {
	if override != nil {
		cands := localize(*override, local)
		switch len(cands) {
		case 1:
			return Resolution{Time: cands[0].Time}
		case 0:
			return Resolution{Ambiguity: &Ambiguity{
				Reason:     ReasonDSTGap,
				Local:      local,
				Candidates: gapBrackets(*override, local),
			}}
		default:
			return Resolution{Ambiguity: &Ambiguity{
				Reason:     ReasonDSTFold,
				Local:      local,
				Candidates: cands,
			}}
		}
	}

	var matched []Candidate
	var gaps []Candidate
	for i, iv := range history {
		cands := localize(iv.Zone, local)
		if len(cands) == 0 {
			// The wall time does not exist in this zone. Offer the bracketing
			// interpretations when the window could cover them instead of
			// silently picking one.
			for _, c := range gapBrackets(iv.Zone, local) {
				if iv.Contains(c.Time) {
					c.Window = i
					gaps = append(gaps, c)
				}
			}
			continue
		}
		for _, c := range cands {
			if iv.Contains(c.Time) {
				c.Window = i
				matched = append(matched, c)
			}
		}
	}

	switch {
	case len(matched) == 0 && len(gaps) > 0:
		return Resolution{Ambiguity: &Ambiguity{
			Reason:     ReasonDSTGap,
			Local:      local,
			Candidates: dedupe(gaps),
		}}
	case len(matched) == 0:
		return Resolution{Ambiguity: &Ambiguity{
			Reason: ReasonMissingHistory,
			Local:  local,
		}}
	}

	matched = dedupe(matched)
	// Separate windows can admit the same instant when their zones agree on
	// the offset there. One unique reading is not ambiguous.
	unique := true
	for _, c := range matched[1:] {
		if !c.Time.Equal(matched[0].Time) {
			unique = false
			break
		}
	}
	if unique {
		return Resolution{Time: matched[0].Time}
	}

	reason := ReasonDSTFold
	for _, c := range matched[1:] {
		if c.Window != matched[0].Window {
			reason = ReasonZoneChange
			break
		}
	}
	return Resolution{Ambiguity: &Ambiguity{
		Reason:     reason,
		Local:      local,
		Candidates: matched,
	}}
}

// localize returns every absolute instant whose wall clock in the zone reads
// exactly like the naive timestamp. One result is the normal case, two mark a
// fold, zero a nonexistent (skipped) time.
func localize(z Zone, wall time.Time) []Candidate {
	wallUTC := carrier(wall, time.UTC)
	probe := carrier(wall, z.Loc)

	seen := make(map[int64]struct{}, 2)
	var out []Candidate
	for _, shift := range []time.Duration{-probeWindow, 0, probeWindow} {
		_, offset := probe.Add(shift).Zone()
		inst := wallUTC.Add(-time.Duration(offset) * time.Second)
		localized := inst.In(z.Loc)
		if !sameWall(localized, wall) {
			continue
		}
		if _, dup := seen[inst.Unix()]; dup {
			continue
		}
		seen[inst.Unix()] = struct{}{}
		abbrev, _ := localized.Zone()
		out = append(out, Candidate{Time: inst, Zone: z.Name, Abbrev: abbrev, Window: -1})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// gapBrackets interprets a nonexistent wall time with the offsets in force
// just before and just after the skip.
func gapBrackets(z Zone, wall time.Time) []Candidate {
	wallUTC := carrier(wall, time.UTC)
	probe := carrier(wall, z.Loc)

	seen := make(map[int]struct{}, 2)
	var out []Candidate
	for _, shift := range []time.Duration{-probeWindow, probeWindow} {
		side := probe.Add(shift)
		abbrev, offset := side.Zone()
		if _, dup := seen[offset]; dup {
			continue
		}
		seen[offset] = struct{}{}
		inst := wallUTC.Add(-time.Duration(offset) * time.Second)
		out = append(out, Candidate{Time: inst, Zone: z.Name, Abbrev: abbrev, Window: -1})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// carrier rebuilds the naive wall reading in the given location.
func carrier(wall time.Time, loc *time.Location) time.Time {
	y, mo, d := wall.Date()
	h, mi, s := wall.Clock()
	return time.Date(y, mo, d, h, mi, s, wall.Nanosecond(), loc)
}

func sameWall(a, b time.Time) bool {
	ay, amo, ad := a.Date()
	by, bmo, bd := b.Date()
	if ay != by || amo != bmo || ad != bd {
		return false
	}
	ah, ami, as := a.Clock()
	bh, bmi, bs := b.Clock()
	return ah == bh && ami == bmi && as == bs && a.Nanosecond() == b.Nanosecond()
}

func dedupe(cands []Candidate) []Candidate {
	sort.SliceStable(cands, func(i, j int) bool {
		if !cands[i].Time.Equal(cands[j].Time) {
			return cands[i].Time.Before(cands[j].Time)
		}
		return cands[i].Window < cands[j].Window
	})
	out := cands[:0]
	for _, c := range cands {
		if len(out) > 0 && out[len(out)-1].Time.Equal(c.Time) && out[len(out)-1].Zone == c.Zone {
			continue
		}
		out = append(out, c)
	}
	return out
}

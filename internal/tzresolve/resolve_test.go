package tzresolve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustZone(t *testing.T, name string) Zone {
	t.Helper()
	z, err := LoadZone(name)
	require.NoError(t, err)
	return z
}

func naive(y int, mo time.Month, d, h, mi, s int) time.Time {
	return time.Date(y, mo, d, h, mi, s, 0, time.UTC)
}

func utc(y int, mo time.Month, d, h, mi, s int) time.Time {
	return time.Date(y, mo, d, h, mi, s, 0, time.UTC)
}

func TestLoadZone(t *testing.T) {
	t.Run("IANA name", func(t *testing.T) {
		z, err := LoadZone("America/Los_Angeles")
		require.NoError(t, err)
		assert.Equal(t, "America/Los_Angeles", z.Name)
	})

	t.Run("plain UTC and GMT", func(t *testing.T) {
		for _, name := range []string{"UTC", "GMT"} {
			z, err := LoadZone(name)
			require.NoError(t, err)
			assert.Equal(t, time.UTC, z.Loc)
		}
	})

	t.Run("fixed offsets", func(t *testing.T) {
		tests := []struct {
			in      string
			name    string
			seconds int
		}{
			{"UTC+0800", "UTC+0800", 8 * 3600},
			{"UTC-0800", "UTC-0800", -8 * 3600},
			{"UTC+05:30", "UTC+0530", 5*3600 + 30*60},
			{"GMT-05", "GMT-0500", -5 * 3600},
		}
		for _, tt := range tests {
			z, err := LoadZone(tt.in)
			require.NoError(t, err, tt.in)
			assert.Equal(t, tt.name, z.Name)
			_, offset := time.Date(2021, 6, 1, 0, 0, 0, 0, z.Loc).Zone()
			assert.Equal(t, tt.seconds, offset, tt.in)
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		for _, name := range []string{"", "Atlantis/Lost", "UTC+25", "UTC8", "GMT+123"} {
			_, err := LoadZone(name)
			assert.Error(t, err, name)
		}
	})
}

func TestResolveUniqueInterval(t *testing.T) {
	history := []Interval{
		{
			Start: utc(2021, 1, 1, 0, 0, 0),
			End:   utc(2022, 1, 1, 0, 0, 0),
			Zone:  mustZone(t, "Europe/Berlin"),
		},
	}

	res := Resolve(history, naive(2021, 6, 1, 12, 0, 0), nil)
	require.True(t, res.OK())
	// CEST is UTC+2 in June.
	assert.True(t, res.Time.Equal(utc(2021, 6, 1, 10, 0, 0)), "got %s", res.Time)
}

func TestResolveOverrideWins(t *testing.T) {
	// History says Tokyo; the forced fixed offset must win regardless.
	history := []Interval{
		{Zone: mustZone(t, "Asia/Tokyo")},
	}
	override := mustZone(t, "UTC-0800")

	res := Resolve(history, naive(2021, 6, 1, 10, 0, 0), &override)
	require.True(t, res.OK())
	assert.True(t, res.Time.Equal(utc(2021, 6, 1, 18, 0, 0)), "got %s", res.Time)
}

func TestResolveFold(t *testing.T) {
	// 2021-11-07 01:30 happened twice in Los Angeles (PDT then PST).
	history := []Interval{
		{
			Start: utc(2021, 1, 1, 0, 0, 0),
			End:   utc(2022, 1, 1, 0, 0, 0),
			Zone:  mustZone(t, "America/Los_Angeles"),
		},
	}

	res := Resolve(history, naive(2021, 11, 7, 1, 30, 0), nil)
	require.False(t, res.OK())
	assert.Equal(t, ReasonDSTFold, res.Ambiguity.Reason)
	require.Len(t, res.Ambiguity.Candidates, 2)
	assert.True(t, res.Ambiguity.Candidates[0].Time.Equal(utc(2021, 11, 7, 8, 30, 0)))
	assert.True(t, res.Ambiguity.Candidates[1].Time.Equal(utc(2021, 11, 7, 9, 30, 0)))
	assert.Equal(t, "PDT", res.Ambiguity.Candidates[0].Abbrev)
	assert.Equal(t, "PST", res.Ambiguity.Candidates[1].Abbrev)
}

func TestResolveSpringForwardGap(t *testing.T) {
	// 2021-03-14 02:30 never happened in Los Angeles. The history is split
	// at the transition date; neither side may be picked silently.
	history := []Interval{
		{
			Start: utc(2021, 1, 1, 0, 0, 0),
			End:   utc(2021, 3, 14, 0, 0, 0),
			Zone:  mustZone(t, "America/Los_Angeles"),
		},
		{
			Start: utc(2021, 3, 14, 0, 0, 0),
			End:   utc(2021, 11, 7, 0, 0, 0),
			Zone:  mustZone(t, "America/Los_Angeles"),
		},
	}

	res := Resolve(history, naive(2021, 3, 14, 2, 30, 0), nil)
	require.False(t, res.OK())
	assert.Equal(t, ReasonDSTGap, res.Ambiguity.Reason)
	require.Len(t, res.Ambiguity.Candidates, 2)
	// As-PDT and as-PST interpretations bracket the skipped half hour.
	assert.True(t, res.Ambiguity.Candidates[0].Time.Equal(utc(2021, 3, 14, 9, 30, 0)))
	assert.True(t, res.Ambiguity.Candidates[1].Time.Equal(utc(2021, 3, 14, 10, 30, 0)))
}

func TestResolveMissingHistory(t *testing.T) {
	history := []Interval{
		{
			Start: utc(2021, 1, 1, 0, 0, 0),
			End:   utc(2021, 2, 1, 0, 0, 0),
			Zone:  mustZone(t, "UTC"),
		},
	}

	res := Resolve(history, naive(2023, 6, 1, 12, 0, 0), nil)
	require.False(t, res.OK())
	assert.Equal(t, ReasonMissingHistory, res.Ambiguity.Reason)
	assert.Empty(t, res.Ambiguity.Candidates)
}

func TestResolveZoneChangeWindow(t *testing.T) {
	// Device flew from Tokyo to Los Angeles; around the recorded switch
	// instant a local reading is consistent with both assignments.
	boundary := utc(2021, 6, 1, 0, 0, 0)
	history := []Interval{
		{End: boundary, Zone: mustZone(t, "Asia/Tokyo")},
		{Start: boundary, Zone: mustZone(t, "America/Los_Angeles")},
	}

	res := Resolve(history, naive(2021, 6, 1, 5, 0, 0), nil)
	require.False(t, res.OK())
	assert.Equal(t, ReasonZoneChange, res.Ambiguity.Reason)
	require.Len(t, res.Ambiguity.Candidates, 2)
	// 05:00 JST is 2021-05-31T20:00Z (before the switch), 05:00 PDT is
	// 2021-06-01T12:00Z (after it).
	assert.True(t, res.Ambiguity.Candidates[0].Time.Equal(utc(2021, 5, 31, 20, 0, 0)))
	assert.True(t, res.Ambiguity.Candidates[1].Time.Equal(utc(2021, 6, 1, 12, 0, 0)))
}

func TestResolveConsistencyCheckDropsInconsistentWindow(t *testing.T) {
	// The naive reading falls inside the Tokyo window only when interpreted
	// in Tokyo time; interpreting it in the later zone lands outside that
	// zone's own window, so only one reading survives.
	boundary := utc(2021, 6, 1, 12, 0, 0)
	history := []Interval{
		{End: boundary, Zone: mustZone(t, "Asia/Tokyo")},
		{Start: boundary, Zone: mustZone(t, "Europe/Berlin")},
	}

	res := Resolve(history, naive(2021, 6, 1, 10, 0, 0), nil)
	require.True(t, res.OK(), "expected unique resolution, got %+v", res.Ambiguity)
	assert.True(t, res.Time.Equal(utc(2021, 6, 1, 1, 0, 0)), "got %s", res.Time)
}

func TestResolveAgreeingWindowsResolve(t *testing.T) {
	// Two overlapping assignments whose zones share an offset both admit
	// the same instant; one unique reading needs no disambiguation.
	history := []Interval{
		{End: utc(2022, 1, 1, 0, 0, 0), Zone: mustZone(t, "Europe/Berlin")},
		{Start: utc(2021, 1, 1, 0, 0, 0), Zone: mustZone(t, "Europe/Paris")},
	}

	res := Resolve(history, naive(2021, 6, 1, 10, 0, 0), nil)
	require.True(t, res.OK(), "got %+v", res.Ambiguity)
	assert.True(t, res.Time.Equal(utc(2021, 6, 1, 8, 0, 0)), "got %s", res.Time)
}

func TestResolveOverrideFoldStillAmbiguous(t *testing.T) {
	override := mustZone(t, "America/Los_Angeles")
	res := Resolve(nil, naive(2021, 11, 7, 1, 30, 0), &override)
	require.False(t, res.OK())
	assert.Equal(t, ReasonDSTFold, res.Ambiguity.Reason)
	assert.Len(t, res.Ambiguity.Candidates, 2)
}

func TestIntervalContains(t *testing.T) {
	iv := Interval{Start: utc(2021, 1, 1, 0, 0, 0), End: utc(2021, 2, 1, 0, 0, 0)}
	assert.True(t, iv.Contains(utc(2021, 1, 1, 0, 0, 0)))
	assert.True(t, iv.Contains(utc(2021, 1, 15, 0, 0, 0)))
	assert.False(t, iv.Contains(utc(2021, 2, 1, 0, 0, 0)), "end is exclusive")
	assert.False(t, iv.Contains(utc(2020, 12, 31, 23, 59, 59)))

	open := Interval{}
	assert.True(t, open.Contains(utc(1970, 1, 1, 0, 0, 0)))
	assert.True(t, open.Contains(utc(2100, 1, 1, 0, 0, 0)))
}

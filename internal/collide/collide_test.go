package collide

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhhhsong/exifmgr/internal/namecodec"
)

func item(unix int64, seq int, abbr string) Item {
	return Item{
		Name: namecodec.Name{Time: time.Unix(unix, 0).UTC(), Abbr: abbr},
		Seq:  seq,
	}
}

func TestFinalizeNoCollisions(t *testing.T) {
	tmpl := namecodec.DefaultTemplate()
	got, err := Finalize(tmpl, []Item{
		item(1616924100, 0, "A7"),
		item(1616924101, 1, "A7"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"DSC1616924100_A7", "DSC1616924101_A7"}, got)
}

func TestFinalizeCollidingGroup(t *testing.T) {
	tmpl := namecodec.DefaultTemplate()
	got, err := Finalize(tmpl, []Item{
		item(1616924100, 0, "A7"),
		item(1616924100, 1, "A7"),
		item(1616924100, 2, "A7"),
	})
	require.NoError(t, err)
	// First in input order keeps the bare stem; later colliders count up
	// from 2.
	assert.Equal(t, []string{
		"DSC1616924100_A7",
		"DSC1616924100_A7-2",
		"DSC1616924100_A7-3",
	}, got)
}

func TestFinalizeOrderIsByTimestampNotInput(t *testing.T) {
	tmpl := namecodec.DefaultTemplate()
	// The later input position carries the earlier timestamp, so it wins
	// nothing; within equal timestamps input position breaks the tie.
	got, err := Finalize(tmpl, []Item{
		item(1616924100, 0, "A7"),
		item(1616924100, 1, "A7"),
		item(1616924099, 2, "A7"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"DSC1616924100_A7",
		"DSC1616924100_A7-2",
		"DSC1616924099_A7",
	}, got)
}

func TestFinalizeDistinctDevicesDoNotCollide(t *testing.T) {
	tmpl := namecodec.DefaultTemplate()
	got, err := Finalize(tmpl, []Item{
		item(1616924100, 0, "A7"),
		item(1616924100, 1, "X5"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"DSC1616924100_A7", "DSC1616924100_X5"}, got)
}

func TestFinalizeSubsecondsSeparate(t *testing.T) {
	tmpl := namecodec.DefaultTemplate()
	a := item(1616924100, 0, "A7")
	b := item(1616924100, 1, "A7")
	b.Name.SubSec = "5"
	got, err := Finalize(tmpl, []Item{a, b})
	require.NoError(t, err)
	assert.Equal(t, []string{"DSC1616924100_A7", "DSC1616924100.5_A7"}, got)
}

func TestFinalizeDeterministic(t *testing.T) {
	tmpl := namecodec.DefaultTemplate()
	items := []Item{
		item(1616924100, 0, "A7"),
		item(1616924100, 1, "A7"),
		item(1616924200, 2, "A7"),
		item(1616924100, 3, "A7"),
	}
	first, err := Finalize(tmpl, items)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Finalize(tmpl, items)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestFinalizeEmpty(t *testing.T) {
	got, err := Finalize(namecodec.DefaultTemplate(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFinalizeBadName(t *testing.T) {
	tmpl := namecodec.DefaultTemplate()
	_, err := Finalize(tmpl, []Item{{Name: namecodec.Name{Abbr: "A7"}, Seq: 0}})
	assert.Error(t, err, "zero timestamp cannot be encoded")
}

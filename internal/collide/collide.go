// Package collide assigns unique filenames across one batch of encoded
// photographs. It is the single synchronization point of a run: every record
// must be encoded (or failed out) before finalization starts, because a late
// arrival could collide with a name that was already handed out.
package collide

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jhhhsong/exifmgr/internal/namecodec"
)

// ErrUnresolvable marks a collision the suffix policy could not break. It
// indicates a logic defect rather than bad input and must abort the batch
// before any file is touched.
var ErrUnresolvable = errors.New("filename collision could not be resolved")

// Item is one encoded photograph awaiting a final name. Seq is the stable
// input position (the collector hands paths over in sorted order), used as
// the tiebreak when resolved timestamps are equal.
type Item struct {
	Name namecodec.Name
	Seq  int
}

// Finalize maps each item to a unique stem. Policy, applied uniformly: items
// are totally ordered by (resolved timestamp, input position); the first
// item of a colliding group keeps the unsuffixed stem and every later
// collider takes the smallest free ordinal starting at 2. Timestamps and
// identity are never touched, only the name. The returned slice is aligned
// with items.
func Finalize(tmpl *namecodec.Template, items []Item) ([]string, error) {
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := items[order[a]], items[order[b]]
		if !ia.Name.Time.Equal(ib.Name.Time) {
			return ia.Name.Time.Before(ib.Name.Time)
		}
		return ia.Seq < ib.Seq
	})

	taken := make(map[string]struct{}, len(items))
	final := make([]string, len(items))

	for _, idx := range order {
		base := items[idx].Name.WithDup(0)
		stem, err := tmpl.Encode(base)
		if err != nil {
			return nil, fmt.Errorf("encode candidate for item %d: %w", items[idx].Seq, err)
		}
		if _, busy := taken[stem]; !busy {
			taken[stem] = struct{}{}
			final[idx] = stem
			continue
		}

		// Suffixed stems only ever collide with stems from the same base, so
		// this terminates well before the bound; hitting it means the encoder
		// and this policy disagree about the name space.
		assigned := false
		for dup := 2; dup <= len(items)+1; dup++ {
			stem, err = tmpl.Encode(base.WithDup(dup))
			if err != nil {
				return nil, fmt.Errorf("encode collision suffix %d for item %d: %w", dup, items[idx].Seq, err)
			}
			if _, busy := taken[stem]; busy {
				continue
			}
			taken[stem] = struct{}{}
			final[idx] = stem
			assigned = true
			break
		}
		if !assigned {
			return nil, fmt.Errorf("item %d (%s): %w", items[idx].Seq, stem, ErrUnresolvable)
		}
	}

	return final, nil
}

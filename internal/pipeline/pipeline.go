// Package pipeline drives photographs from raw metadata to finalized
// filenames. The per-record phase is embarrassingly parallel: each record
// depends only on its own fields and the read-only device registry, so
// records run on independent workers. Collision resolution is the one
// barrier and runs strictly after every record has either encoded or failed.
package pipeline

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/jhhhsong/exifmgr/internal/collide"
	"github.com/jhhhsong/exifmgr/internal/device"
	"github.com/jhhhsong/exifmgr/internal/namecodec"
	"github.com/jhhhsong/exifmgr/internal/tzresolve"
)

// Chooser picks one candidate out of an ambiguous localization. An
// implementation may block (interactive prompt); blocking suspends only the
// record awaiting input, not the batch. Returning an error fails the record.
type Chooser interface {
	Choose(rec *Record, amb *tzresolve.Ambiguity) (tzresolve.Candidate, error)
}

// Pipeline carries the immutable collaborators of one run.
type Pipeline struct {
	Registry *device.Registry
	Template *namecodec.Template
	Override *tzresolve.Zone // forced zone, wins over device history
	Chooser  Chooser         // nil: ambiguous records fail with their candidates attached
	Workers  int             // parallel workers, <=0 means NumCPU
}

// Process runs every record through identity, timestamp and encode stages in
// parallel, then finalizes names across the whole batch. Per-record problems
// land in Record.Failure and never abort siblings; the returned error is
// reserved for batch-fatal conditions (context cancellation, collision
// policy violations) and is raised before any caller-side file mutation.
func (p *Pipeline) Process(ctx context.Context, recs []*Record) error {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, rec := range recs {
		rec := rec
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			p.advance(rec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return p.finalize(recs)
}

// advance moves one record as far as encoding. It never returns an error;
// problems terminate the record instead.
func (p *Pipeline) advance(rec *Record) {
	key := device.Key{Make: rec.Input.Make, Model: rec.Input.Model, Author: rec.Input.Author}
	dev, err := p.Registry.Lookup(key)
	if err != nil {
		rec.fail(err)
		return
	}
	rec.Device = dev
	rec.Stage = StageIdentity

	res := tzresolve.Resolve(dev.History, rec.Input.LocalTime, p.Override)
	if !res.OK() {
		rec.Ambiguity = res.Ambiguity
		if p.Chooser == nil || len(res.Ambiguity.Candidates) == 0 {
			rec.fail(fmt.Errorf("unresolved timestamp: %s", res.Ambiguity.Describe()))
			return
		}
		cand, err := p.Chooser.Choose(rec, res.Ambiguity)
		if err != nil {
			rec.fail(fmt.Errorf("disambiguation declined: %w", err))
			return
		}
		res.Time = cand.Time
	}
	rec.Resolved = res.Time
	rec.Stage = StageTimestamp

	name := namecodec.Name{
		Time:   rec.Resolved,
		SubSec: rec.Input.SubSec,
		Abbr:   dev.Abbr,
		Author: namecodec.AuthorTag(rec.Input.Author),
	}
	if _, err := p.Template.Encode(name); err != nil {
		rec.fail(fmt.Errorf("encode candidate name: %w", err))
		return
	}
	rec.Name = name
	rec.Stage = StageEncoded
}

// finalize resolves collisions over all encoded records and stamps final
// filenames. A collision the policy cannot break fails the whole batch.
func (p *Pipeline) finalize(recs []*Record) error {
	var encoded []*Record
	var items []collide.Item
	for _, rec := range recs {
		if rec.Stage != StageEncoded {
			continue
		}
		encoded = append(encoded, rec)
		items = append(items, collide.Item{Name: rec.Name, Seq: rec.Seq})
	}
	if len(items) == 0 {
		return nil
	}

	stems, err := collide.Finalize(p.Template, items)
	if err != nil {
		return err
	}
	for i, rec := range encoded {
		rec.Final = stems[i]
		if rec.Input.Ext != "" {
			rec.Final += "." + rec.Input.Ext
		}
		rec.Stage = StageFinalized
	}
	return nil
}

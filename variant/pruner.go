package variant

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/icebergd/coreberg/iceberg"
	"github.com/icebergd/coreberg/manifest"
)

// FieldType resolves the declared Iceberg type for a field path, so
// BoundsFromDataFile knows how to interpret each field's raw bound
// bytes. Both ordinary schema field IDs (by FieldTypes) and shredded
// statistics paths (by FieldIDs from AssignShreddedFieldIDs) feed into
// one such resolver.
type FieldType struct {
	FieldIDs   map[string]int
	FieldTypes map[string]iceberg.PrimitiveType
}

// BoundsFromDataFile extracts a Bounds view of d for the fields named
// in ft, translating each field path to its manifest field ID and
// reading that ID's counts/bounds maps.
func BoundsFromDataFile(d manifest.DataFile, ft FieldType) Bounds {
	b := make(Bounds, len(ft.FieldIDs))
	for path, id := range ft.FieldIDs {
		t, ok := ft.FieldTypes[path]
		if !ok {
			continue
		}
		lower, hasLower := d.LowerBounds[id]
		upper, hasUpper := d.UpperBounds[id]
		b[path] = FieldStats{
			Type:       t,
			HasBounds:  hasLower && hasUpper,
			Lower:      lower,
			Upper:      upper,
			ValueCount: d.ValueCounts[id],
			NullCount:  d.NullValueCounts[id],
		}
	}
	return b
}

// PlanEntry is one manifest entry's pruning decision.
type PlanEntry struct {
	Entry manifest.ManifestEntry
	Skip  bool
}

// Pruner evaluates a rewritten filter against a manifest's entries,
// in bounded parallel, to decide which data files scan planning can
// skip. Pruning holds no external resources, so it is freely
// cancellable.
type Pruner struct {
	Filter      Filter
	FieldTypes  FieldType
	Concurrency int
	Logger      zerolog.Logger
}

// NewPruner returns a Pruner with a sane default concurrency.
func NewPruner(filter Filter, ft FieldType) *Pruner {
	return &Pruner{Filter: filter, FieldTypes: ft, Concurrency: 8, Logger: zerolog.Nop()}
}

// Plan evaluates ShouldSkip for every entry concurrently (bounded by
// Concurrency) and returns one PlanEntry per input entry, preserving
// input order. It returns early with ctx's error if ctx is cancelled,
// or the first evaluation error encountered.
func (p *Pruner) Plan(ctx context.Context, entries []manifest.ManifestEntry) ([]PlanEntry, error) {
	out := make([]PlanEntry, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	if p.Concurrency > 0 {
		g.SetLimit(p.Concurrency)
	}

	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			bounds := BoundsFromDataFile(e.DataFile, p.FieldTypes)
			skip, err := ShouldSkip(p.Filter, bounds)
			if err != nil {
				return err
			}
			out[i] = PlanEntry{Entry: e, Skip: skip}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	skipped := 0
	for _, pe := range out {
		if pe.Skip {
			skipped++
		}
	}
	p.Logger.Debug().
		Int("entries", len(out)).
		Int("skipped", skipped).
		Msg("pruning plan complete")
	return out, nil
}

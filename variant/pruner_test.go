package variant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icebergd/coreberg/iceberg"
	"github.com/icebergd/coreberg/manifest"
)

func TestPruner_Plan_SkipsAndKeepsByBounds(t *testing.T) {
	lowLB, _ := encode(int64(1), iceberg.Int64)
	lowUB, _ := encode(int64(5), iceberg.Int64)
	highLB, _ := encode(int64(100), iceberg.Int64)
	highUB, _ := encode(int64(200), iceberg.Int64)

	entries := []manifest.ManifestEntry{
		{DataFile: manifest.DataFile{
			LowerBounds: map[int][]byte{10: lowLB},
			UpperBounds: map[int][]byte{10: lowUB},
		}},
		{DataFile: manifest.DataFile{
			LowerBounds: map[int][]byte{10: highLB},
			UpperBounds: map[int][]byte{10: highUB},
		}},
	}

	ft := FieldType{
		FieldIDs:   map[string]int{"amount": 10},
		FieldTypes: map[string]iceberg.PrimitiveType{"amount": iceberg.Int64},
	}
	p := NewPruner(Filter{"amount": map[string]any{"$gt": int64(50)}}, ft)

	plan, err := p.Plan(context.Background(), entries)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.True(t, plan[0].Skip, "[1,5] cannot satisfy amount > 50")
	assert.False(t, plan[1].Skip, "[100,200] can satisfy amount > 50")
}

func TestPruner_Plan_PreservesInputOrder(t *testing.T) {
	ft := FieldType{FieldIDs: map[string]int{}, FieldTypes: map[string]iceberg.PrimitiveType{}}
	p := NewPruner(Filter{}, ft)

	entries := make([]manifest.ManifestEntry, 20)
	for i := range entries {
		entries[i] = manifest.ManifestEntry{DataFile: manifest.DataFile{FilePath: string(rune('a' + i))}}
	}

	plan, err := p.Plan(context.Background(), entries)
	require.NoError(t, err)
	for i, pe := range plan {
		assert.Equal(t, entries[i].DataFile.FilePath, pe.Entry.DataFile.FilePath)
		assert.False(t, pe.Skip)
	}
}

func TestPruner_Plan_PropagatesEvaluationError(t *testing.T) {
	ft := FieldType{
		FieldIDs:   map[string]int{"amount": 10},
		FieldTypes: map[string]iceberg.PrimitiveType{"amount": iceberg.Int64},
	}
	lb, _ := encode(int64(1), iceberg.Int64)
	ub, _ := encode(int64(5), iceberg.Int64)
	entries := []manifest.ManifestEntry{
		{DataFile: manifest.DataFile{
			LowerBounds: map[int][]byte{10: lb},
			UpperBounds: map[int][]byte{10: ub},
		}},
	}
	p := NewPruner(Filter{"amount": map[string]any{"$bogus": int64(1)}}, ft)

	_, err := p.Plan(context.Background(), entries)
	assert.Error(t, err)
}

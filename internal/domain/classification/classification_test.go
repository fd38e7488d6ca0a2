package classification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ============================================================================
// Groups and Snapshots
// ============================================================================

func TestGroup_Bucket(t *testing.T) {
	tests := []struct {
		group  Group
		bucket Bucket
	}{
		{QualRevenue, BucketRevenue},
		{CostOfSalesQuant, BucketCostOfSales},
		{Depreciation, BucketOperating},
		{FinancingCost, BucketFinancing},
		{TaxCost, BucketTaxes},
		{Unclassified, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.group), func(t *testing.T) {
			assert.Equal(t, tt.bucket, tt.group.Bucket())
			assert.Equal(t, tt.bucket != "", tt.group.Valid())
		})
	}

	assert.Equal(t, []Group{AdminCost, EmploymentCost, Depreciation}, GroupsIn(BucketOperating))
}

func TestParseGroup(t *testing.T) {
	g, ok := ParseGroup("  cost of sales - qual ")
	assert.True(t, ok)
	assert.Equal(t, CostOfSalesQual, g)

	_, ok = ParseGroup("Unclassified")
	assert.False(t, ok)
}

func TestSnapshot_Resolve(t *testing.T) {
	s := NewSnapshot(1, Mapping{"Sales": QualRevenue, "Cost of  Goods Sold": CostOfSales}, "admin", gofakeit.Date())

	assert.Equal(t, QualRevenue, s.Resolve("Sales"))
	assert.Equal(t, QualRevenue, s.Resolve("  sales "))
	assert.Equal(t, CostOfSales, s.Resolve("cost of goods sold"))
	assert.Equal(t, Unclassified, s.Resolve("Rent"))
	assert.Equal(t, Unclassified, (*Snapshot)(nil).Resolve("Sales"))
}

func TestNewSnapshot_CopiesMapping(t *testing.T) {
	m := Mapping{"Sales": QualRevenue}
	s := NewSnapshot(1, m, "", gofakeit.Date())

	m["Sales"] = TaxCost

	assert.Equal(t, QualRevenue, s.Resolve("Sales"))
}

// ============================================================================
// Partition and Suggestions
// ============================================================================

func TestSnapshot_Partition(t *testing.T) {
	s := NewSnapshot(1, DefaultMapping(), "", gofakeit.Date())

	p := s.Partition([]string{"Sales", "Rent", "Depreciation", "Mystery Fees", "Sales", "Corporate Tax", "Interest Expense", "Hosting Costs"})

	assert.Equal(t, []string{"Sales"}, p.Known[BucketRevenue])
	assert.Equal(t, []string{"Hosting Costs"}, p.Known[BucketCostOfSales])
	assert.Equal(t, []string{"Depreciation", "Rent"}, p.Known[BucketOperating])
	assert.Equal(t, []string{"Interest Expense"}, p.Known[BucketFinancing])
	assert.Equal(t, []string{"Corporate Tax"}, p.Known[BucketTaxes])
	assert.Equal(t, []string{"Mystery Fees"}, p.Unknown)
}

func TestSnapshot_PartitionIsDisjointAndComplete(t *testing.T) {
	faker := gofakeit.New(42)
	s := NewSnapshot(1, DefaultMapping(), "", faker.Date())
	mapped := s.Labels()

	for i := 0; i < 50; i++ {
		var labels []string
		for j := 0; j < faker.Number(1, 30); j++ {
			if faker.Bool() {
				labels = append(labels, mapped[faker.Number(0, len(mapped)-1)])
			} else {
				labels = append(labels, faker.BuzzWord())
			}
		}

		p := s.Partition(labels)

		placed := make(map[string]int)
		for _, b := range Buckets() {
			for _, l := range p.Known[b] {
				placed[l]++
			}
		}
		for _, l := range p.Unknown {
			placed[l]++
		}

		for _, l := range labels {
			assert.Equal(t, 1, placed[l], "label %q placed %d times", l, placed[l])
		}
		assert.Len(t, placed, len(uniq(labels)))
	}
}

func uniq(in []string) map[string]bool {
	out := make(map[string]bool, len(in))
	for _, s := range in {
		out[s] = true
	}
	return out
}

func TestSnapshot_Suggest(t *testing.T) {
	s := NewSnapshot(1, DefaultMapping(), "", gofakeit.Date())

	got := s.Suggest([]string{"Rent Expense", "Salary", "zzqx"}, DefaultSuggestThreshold)

	require.Len(t, got, 2)
	assert.Equal(t, "Rent Expense", got[0].Label)
	assert.Equal(t, "Rent", got[0].Match)
	assert.Equal(t, AdminCost, got[0].Group)
	assert.Equal(t, "Salary", got[1].Label)
	assert.Equal(t, "Salaries", got[1].Match)
	assert.Equal(t, EmploymentCost, got[1].Group)

	assert.Nil(t, Empty().Suggest([]string{"Rent"}, 0))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 100, similarity("rent", "rent"))
	assert.Equal(t, 0, similarity("", "rent"))
	assert.GreaterOrEqual(t, similarity("rent expense", "rent"), 75)
	assert.Less(t, similarity("zzqx", "salaries"), DefaultSuggestThreshold)
}

// ============================================================================
// Registry
// ============================================================================

func TestRegistry_LoadSeedsDefaults(t *testing.T) {
	store := NewMemoryStore()
	r := NewRegistry(store, testLogger())

	assert.Equal(t, Unclassified, r.Resolve("Sales"))

	require.NoError(t, r.Load(context.Background()))

	assert.Equal(t, int64(1), r.Current().Version)
	assert.Equal(t, QualRevenue, r.Resolve("Sales"))
	assert.Equal(t, "system", r.Current().UpdatedBy)

	// A second load keeps the stored mapping.
	require.NoError(t, r.Load(context.Background()))
	assert.Equal(t, int64(1), r.Current().Version)
}

func TestRegistry_Replace(t *testing.T) {
	ctx := context.Background()
	admin := Actor{ID: "admin-1", Admin: true}

	t.Run("full replace, no merge", func(t *testing.T) {
		r := NewRegistry(NewMemoryStore(), testLogger())
		require.NoError(t, r.Load(ctx))

		snap, err := r.Replace(ctx, admin, map[string]string{" Sales ": "quant revenue", "Wages": "Employment Cost"})

		require.NoError(t, err)
		assert.Equal(t, int64(2), snap.Version)
		assert.Same(t, snap, r.Current())
		assert.Equal(t, QuantRevenue, r.Resolve("Sales"))
		assert.Equal(t, Unclassified, r.Resolve("Rent"))
		assert.Equal(t, "admin-1", snap.UpdatedBy)
	})

	t.Run("non admin is forbidden", func(t *testing.T) {
		r := NewRegistry(NewMemoryStore(), testLogger())

		_, err := r.Replace(ctx, Actor{ID: "viewer"}, map[string]string{"Sales": "Qual Revenue"})

		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, int64(0), r.Current().Version)
	})

	t.Run("invalid group leaves mapping untouched", func(t *testing.T) {
		r := NewRegistry(NewMemoryStore(), testLogger())
		require.NoError(t, r.Load(ctx))

		_, err := r.Replace(ctx, admin, map[string]string{"Sales": "Qual Revenue", "Rent": "Overheads"})

		var groupErr *InvalidGroupError
		require.True(t, errors.As(err, &groupErr))
		assert.Equal(t, "Rent", groupErr.Label)
		assert.Equal(t, int64(1), r.Current().Version)
	})

	t.Run("labels differing only by case or spacing are rejected", func(t *testing.T) {
		r := NewRegistry(NewMemoryStore(), testLogger())
		require.NoError(t, r.Load(ctx))

		for i := 0; i < 20; i++ {
			_, err := r.Replace(ctx, admin, map[string]string{"Rent": "Admin Cost", " RENT ": "Tax Cost"})

			var dupErr *DuplicateLabelError
			require.True(t, errors.As(err, &dupErr))
			assert.Equal(t, "RENT", dupErr.Other)
			assert.Equal(t, "Rent", dupErr.Label)
		}
		assert.Equal(t, int64(1), r.Current().Version)
		assert.Equal(t, AdminCost, r.Resolve("Rent"))

		_, err := ValidateMapping(map[string]string{"Office Rent": "Admin Cost", "office   rent": "Admin Cost"})
		var dupErr *DuplicateLabelError
		require.True(t, errors.As(err, &dupErr))
		assert.Equal(t, "Office Rent", dupErr.Other)
		assert.Equal(t, "office   rent", dupErr.Label)
	})

	t.Run("empty mapping and labels", func(t *testing.T) {
		r := NewRegistry(NewMemoryStore(), testLogger())

		_, err := r.Replace(ctx, admin, nil)
		assert.ErrorIs(t, err, ErrEmptyMapping)

		_, err = r.Replace(ctx, admin, map[string]string{"  ": "Tax Cost"})
		assert.ErrorIs(t, err, ErrEmptyLabel)
	})
}

func TestRegistry_ReadersSeeWholeSnapshots(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(NewMemoryStore(), testLogger())
	admin := Actor{ID: "admin", Admin: true}

	mappingFor := func(i int) map[string]string {
		g := QualRevenue
		if i%2 == 0 {
			g = QuantRevenue
		}
		return map[string]string{"Sales": string(g), fmt.Sprintf("Label %d", i): string(g)}
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := r.Current()
				if snap.Version == 0 {
					continue
				}
				label := fmt.Sprintf("Label %d", snap.Version)
				assert.Equal(t, snap.Resolve("Sales"), snap.Resolve(label))
			}
		}()
	}

	for i := 1; i <= 50; i++ {
		_, err := r.Replace(ctx, admin, mappingFor(i))
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, int64(50), r.Current().Version)
}

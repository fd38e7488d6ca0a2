// Package reporting computes read-side views over normalized datasets. Every
// view is derived on read from the stored dataset and the active
// classification snapshot; nothing here is persisted.
package reporting

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Bucket is one group of an aggregation. Sums are aligned with the view's
// Axes; Total is the sum across axes.
type Bucket struct {
	Key   string            `json:"key"`
	Count int               `json:"count"`
	Sums  []decimal.Decimal `json:"sums"`
	Total decimal.Decimal   `json:"total"`
}

// View is the result of grouping records by one key over a set of numeric
// axes. Total always equals the sum of bucket totals.
type View struct {
	Axes       []string          `json:"axes"`
	Buckets    []Bucket          `json:"buckets"`
	AxisTotals []decimal.Decimal `json:"axisTotals"`
	Total      decimal.Decimal   `json:"total"`
}

// Aggregate groups items by key and sums the values returned for each item
// over the named axes. Buckets are sorted by key. Values beyond len(axes)
// are ignored and missing values count as zero.
func Aggregate[T any](items []T, axes []string, key func(T) string, values func(T) []decimal.Decimal) View {
	index := make(map[string]int)
	var buckets []Bucket

	for _, item := range items {
		k := key(item)
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, Bucket{Key: k, Sums: zeros(len(axes))})
		}
		b := &buckets[i]
		b.Count++
		for a, v := range values(item) {
			if a >= len(axes) {
				break
			}
			b.Sums[a] = b.Sums[a].Add(v)
		}
	}

	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Key < buckets[j].Key })

	view := View{Axes: axes, Buckets: buckets, AxisTotals: zeros(len(axes)), Total: decimal.Zero}
	if view.Buckets == nil {
		view.Buckets = []Bucket{}
	}
	for i := range view.Buckets {
		b := &view.Buckets[i]
		b.Total = decimal.Zero
		for a, s := range b.Sums {
			b.Total = b.Total.Add(s)
			view.AxisTotals[a] = view.AxisTotals[a].Add(s)
		}
		view.Total = view.Total.Add(b.Total)
	}
	return view
}

// Find returns the bucket with key, if present.
func (v View) Find(key string) (Bucket, bool) {
	i := sort.Search(len(v.Buckets), func(i int) bool { return v.Buckets[i].Key >= key })
	if i < len(v.Buckets) && v.Buckets[i].Key == key {
		return v.Buckets[i], true
	}
	return Bucket{}, false
}

// Sum returns the value of one axis for key, or zero.
func (v View) Sum(key, axis string) decimal.Decimal {
	b, ok := v.Find(key)
	if !ok {
		return decimal.Zero
	}
	for i, a := range v.Axes {
		if a == axis {
			return b.Sums[i]
		}
	}
	return decimal.Zero
}

func zeros(n int) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = decimal.Zero
	}
	return out
}

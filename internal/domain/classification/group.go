// Package classification maps P&L labels to financial groups. The active
// mapping is an immutable versioned snapshot swapped atomically on replace.
package classification

import (
	"errors"
	"fmt"
	"strings"
)

// Group is a financial classification tag.
type Group string

const (
	OtherRevenue     Group = "Other Revenue"
	QualRevenue      Group = "Qual Revenue"
	QuantRevenue     Group = "Quant Revenue"
	CostOfSales      Group = "Cost of Sales"
	CostOfSalesQual  Group = "Cost of Sales - Qual"
	CostOfSalesQuant Group = "Cost of Sales - Quant"
	AdminCost        Group = "Admin Cost"
	EmploymentCost   Group = "Employment Cost"
	Depreciation     Group = "Depreciation"
	FinancingCost    Group = "Financing Cost"
	TaxCost          Group = "Tax Cost"

	// Unclassified is returned for labels absent from the active mapping.
	Unclassified Group = "Unclassified"
)

// Bucket is one of the five financial buckets groups roll up into.
type Bucket string

const (
	BucketRevenue     Bucket = "revenue"
	BucketCostOfSales Bucket = "cost-of-sales"
	BucketOperating   Bucket = "operating"
	BucketFinancing   Bucket = "financing"
	BucketTaxes       Bucket = "taxes"
)

var (
	ErrForbidden    = errors.New("only admins may replace the classification mapping")
	ErrEmptyMapping = errors.New("classification mapping is empty")
	ErrEmptyLabel   = errors.New("classification label is empty")
)

// InvalidGroupError reports a mapping entry whose group is not a known tag.
type InvalidGroupError struct {
	Label string
	Group string
}

func (e *InvalidGroupError) Error() string {
	return fmt.Sprintf("invalid classification group %q for label %q", e.Group, e.Label)
}

// DuplicateLabelError reports two mapping labels that resolve to the same
// label once trimmed and case-folded.
type DuplicateLabelError struct {
	Label string
	Other string
}

func (e *DuplicateLabelError) Error() string {
	return fmt.Sprintf("classification labels %q and %q are the same label", e.Other, e.Label)
}

var groupBuckets = map[Group]Bucket{
	OtherRevenue:     BucketRevenue,
	QualRevenue:      BucketRevenue,
	QuantRevenue:     BucketRevenue,
	CostOfSales:      BucketCostOfSales,
	CostOfSalesQual:  BucketCostOfSales,
	CostOfSalesQuant: BucketCostOfSales,
	AdminCost:        BucketOperating,
	EmploymentCost:   BucketOperating,
	Depreciation:     BucketOperating,
	FinancingCost:    BucketFinancing,
	TaxCost:          BucketTaxes,
}

// Groups returns every assignable group in reporting order.
func Groups() []Group {
	return []Group{
		OtherRevenue, QualRevenue, QuantRevenue,
		CostOfSales, CostOfSalesQual, CostOfSalesQuant,
		AdminCost, EmploymentCost, Depreciation,
		FinancingCost, TaxCost,
	}
}

// Buckets returns the five buckets in reporting order.
func Buckets() []Bucket {
	return []Bucket{BucketRevenue, BucketCostOfSales, BucketOperating, BucketFinancing, BucketTaxes}
}

// GroupsIn returns the groups that roll up into b.
func GroupsIn(b Bucket) []Group {
	var out []Group
	for _, g := range Groups() {
		if groupBuckets[g] == b {
			out = append(out, g)
		}
	}
	return out
}

// Valid reports whether g is assignable. Unclassified is not.
func (g Group) Valid() bool {
	_, ok := groupBuckets[g]
	return ok
}

// Bucket returns the bucket of g, or "" for Unclassified.
func (g Group) Bucket() Bucket {
	return groupBuckets[g]
}

// ParseGroup resolves a group tag case-insensitively.
func ParseGroup(s string) (Group, bool) {
	s = strings.TrimSpace(s)
	for _, g := range Groups() {
		if strings.EqualFold(string(g), s) {
			return g, true
		}
	}
	return "", false
}

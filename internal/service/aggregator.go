package service

import (
	"fmt"
	"strings"

	"apparel-order-service/internal/models"
	"apparel-order-service/internal/util"

	"go.uber.org/zap"
)

// SKUResolver translates a style/color/size triple into the vendor's SKU.
// The vendor order endpoint requires true SKUs; descriptive keys are only a
// last-resort fallback.
type SKUResolver interface {
	Resolve(style, color, size string) (string, bool)
}

// SKUTable is a SKUResolver backed by the sku_map table, keyed
// case-insensitively on trimmed fields to match catalog color matching.
type SKUTable struct {
	entries map[string]string
}

// NewSKUTable builds a resolver from sku_map rows.
func NewSKUTable(entries []models.SKUEntry) *SKUTable {
	t := &SKUTable{entries: make(map[string]string, len(entries))}
	for _, e := range entries {
		t.entries[skuKey(e.Style, e.Color, e.Size)] = e.SKU
	}
	return t
}

// Resolve implements SKUResolver.
func (t *SKUTable) Resolve(style, color, size string) (string, bool) {
	sku, ok := t.entries[skuKey(style, color, size)]
	return sku, ok
}

func skuKey(style, color, size string) string {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	return norm(style) + "|" + norm(color) + "|" + norm(size)
}

// CompositeKey is the descriptive fallback identifier used when no SKU
// mapping exists for a triple.
func CompositeKey(style, color, size string) string {
	return fmt.Sprintf("%s|%s|%s", style, color, size)
}

// Aggregator collapses pending employee orders into deduplicated line items.
type Aggregator struct {
	resolver SKUResolver
	logger   *zap.Logger
}

// NewAggregator creates a line-item aggregator. A nil resolver means every
// line falls back to the composite key.
func NewAggregator(resolver SKUResolver) *Aggregator {
	return &Aggregator{
		resolver: resolver,
		logger:   util.GetLogger(),
	}
}

// Aggregate walks every filled slot of every record and counts units per
// grouping key. One slot contributes exactly one unit; slots are never
// merged within a record, but identical triples across records share a line.
// Output order is first-occurrence order, so results are deterministic for
// a given record ordering. The sum of output quantities always equals the
// number of filled slots in the input.
func (a *Aggregator) Aggregate(records []models.EmployeeOrder) []models.AggregatedLineItem {
	index := make(map[string]int)
	var lines []models.AggregatedLineItem

	for _, record := range records {
		for _, slot := range record.Slots() {
			if !slot.Complete() {
				continue
			}

			identifier, resolved := "", false
			if a.resolver != nil {
				identifier, resolved = a.resolver.Resolve(slot.Style, slot.Color, slot.Size)
			}
			if !resolved {
				identifier = CompositeKey(slot.Style, slot.Color, slot.Size)
				util.UnresolvedSKULinesTotal.Inc()
				a.logger.Warn("No SKU mapping for item, using composite key",
					zap.String("style", slot.Style),
					zap.String("color", slot.Color),
					zap.String("size", slot.Size))
			}

			if i, ok := index[identifier]; ok {
				lines[i].Qty++
				continue
			}
			index[identifier] = len(lines)
			lines = append(lines, models.AggregatedLineItem{
				Identifier: identifier,
				Qty:        1,
				Resolved:   resolved,
			})
		}
	}

	return lines
}

package stock

import (
	"context"
	"time"

	"apparel-order-service/internal/models"
	"apparel-order-service/internal/util"
	"apparel-order-service/internal/vendor"

	"go.uber.org/zap"
)

// ProductSource is the slice of the vendor client the fetcher needs.
type ProductSource interface {
	GetProducts(ctx context.Context, styleCode string) ([]vendor.ProductRow, error)
}

// Fetcher builds normalized stock snapshots for one fulfillment warehouse.
type Fetcher struct {
	source    ProductSource
	warehouse string
	logger    *zap.Logger
	now       func() time.Time
}

// NewFetcher creates a stock snapshot fetcher scoped to a warehouse code.
func NewFetcher(source ProductSource, warehouseCode string) *Fetcher {
	return &Fetcher{
		source:    source,
		warehouse: warehouseCode,
		logger:    util.GetLogger(),
		now:       time.Now,
	}
}

// Snapshot fetches live stock for a style and normalizes it to a per-color,
// per-size quantity table. Only rows for the configured warehouse with
// qty > 0 are kept, so absence in the result means "not orderable", never
// "zero". On any failure the snapshot is nil: callers must treat that as
// "stock unknown" and fail closed.
func (f *Fetcher) Snapshot(ctx context.Context, styleCode string) (*models.StockSnapshot, error) {
	ctx, span := util.StartSpan(ctx, "stock.Fetcher.Snapshot")
	defer span.End()

	start := f.now()
	rows, err := f.source.GetProducts(ctx, styleCode)
	util.StockFetchLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		util.StockFetchesTotal.WithLabelValues("error").Inc()
		f.logger.Warn("Stock fetch failed",
			zap.String("style", styleCode),
			zap.Error(err))
		return nil, &models.StockUnavailableError{StyleCode: styleCode, Cause: err}
	}

	util.StockFetchesTotal.WithLabelValues("ok").Inc()

	snap := &models.StockSnapshot{
		StyleCode:     styleCode,
		WarehouseCode: f.warehouse,
		FetchedAt:     f.now(),
	}

	// Colors keep first-seen order from the vendor payload; the first row of
	// a color supplies its descriptive metadata.
	colorIndex := make(map[string]int)
	for _, row := range rows {
		qty := warehouseQty(row.Warehouses, f.warehouse)
		if qty <= 0 {
			continue
		}

		idx, seen := colorIndex[row.ColorName]
		if !seen {
			snap.Colors = append(snap.Colors, models.ColorStock{
				CatalogColor: models.CatalogColor{
					ColorName:        row.ColorName,
					ColorCode:        row.ColorCode,
					HexColor:         row.Color1,
					ColorSwatchImage: row.ColorSwatchImage,
					ColorFrontImage:  row.ColorFrontImage,
					ColorBackImage:   row.ColorBackImage,
				},
			})
			idx = len(snap.Colors) - 1
			colorIndex[row.ColorName] = idx
		}

		snap.Colors[idx].Sizes = append(snap.Colors[idx].Sizes, models.SizeStock{
			Size: row.SizeName,
			Qty:  qty,
		})
	}

	f.logger.Debug("Stock snapshot built",
		zap.String("style", styleCode),
		zap.String("warehouse", f.warehouse),
		zap.Int("colors", len(snap.Colors)))

	return snap, nil
}

func warehouseQty(warehouses []vendor.WarehouseStock, code string) int {
	for _, w := range warehouses {
		if w.WarehouseAbbr == code {
			return w.Qty
		}
	}
	return 0
}

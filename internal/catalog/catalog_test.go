package catalog

import (
	"testing"
	"time"

	"apparel-order-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStyle() models.CatalogStyle {
	return models.CatalogStyle{
		StyleID:   "nextlevel-3600",
		StyleCode: "3600",
		StyleName: "Next Level Cotton Crew",
		Colors: []models.CatalogColor{
			{ColorName: "Black", ColorCode: "003", HexColor: "#141414"},
			{ColorName: "White", ColorCode: "051", HexColor: "#FFFFFF"},
			{ColorName: "Royal", ColorCode: "043", HexColor: "#1550A0"},
		},
	}
}

func TestFilterNilSnapshotFailsClosed(t *testing.T) {
	got := Filter(testStyle(), nil)

	assert.Empty(t, got.Colors, "unknown stock must yield zero orderable colors, not the unfiltered catalog")
	assert.Equal(t, 0, got.TotalColors)
	assert.True(t, got.StockUnknown, "the degraded result must be distinguishable from genuine zero stock")
}

func TestFilterIntersectsWithSnapshot(t *testing.T) {
	snap := &models.StockSnapshot{
		StyleCode:     "3600",
		WarehouseCode: "IL",
		FetchedAt:     time.Now(),
		Colors: []models.ColorStock{
			{
				CatalogColor: models.CatalogColor{ColorName: "Black", HexColor: "#0F0F0F"},
				Sizes:        []models.SizeStock{{Size: "S", Qty: 12}, {Size: "M", Qty: 4}},
			},
			{
				CatalogColor: models.CatalogColor{ColorName: "Kelly Green"},
				Sizes:        []models.SizeStock{{Size: "L", Qty: 7}},
			},
		},
	}

	got := Filter(testStyle(), snap)

	// Only Black is in both the catalog and the snapshot; Kelly Green is not
	// a catalog color and White/Royal have no stock.
	require.Len(t, got.Colors, 1)
	assert.Equal(t, "Black", got.Colors[0].ColorName)
	assert.Equal(t, "IL", got.WarehouseCode)

	// Catalog metadata wins, snapshot sizing is authoritative.
	assert.Equal(t, "#141414", got.Colors[0].HexColor)
	assert.Equal(t, []models.SizeStock{{Size: "S", Qty: 12}, {Size: "M", Qty: 4}}, got.Colors[0].Sizes)
}

func TestFilterColorMatchIsCaseAndWhitespaceInsensitive(t *testing.T) {
	style := models.CatalogStyle{
		StyleCode: "3600",
		Colors: []models.CatalogColor{
			{ColorName: "Black"},
			{ColorName: "white "},
			{ColorName: " ROYAL"},
		},
	}
	snap := &models.StockSnapshot{
		Colors: []models.ColorStock{
			{CatalogColor: models.CatalogColor{ColorName: " BLACK"}, Sizes: []models.SizeStock{{Size: "M", Qty: 1}}},
			{CatalogColor: models.CatalogColor{ColorName: "White"}, Sizes: []models.SizeStock{{Size: "L", Qty: 2}}},
			{CatalogColor: models.CatalogColor{ColorName: "royal"}, Sizes: []models.SizeStock{{Size: "S", Qty: 3}}},
		},
	}

	got := Filter(style, snap)
	assert.Len(t, got.Colors, 3)
}

func TestLoadEmbeddedCatalog(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	require.NotEmpty(t, c.Styles())

	tee, ok := c.StyleByCode("3600")
	require.True(t, ok)
	assert.Equal(t, "tshirt", tee.Category)
	assert.NotEmpty(t, tee.Colors)

	_, ok = c.StyleByCode("no-such-style")
	assert.False(t, ok)
}

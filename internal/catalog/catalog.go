package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"apparel-order-service/internal/models"
)

//go:embed data/*.json
var styleData embed.FS

// Catalog holds the static style reference data, loaded once at startup.
type Catalog struct {
	styles []models.CatalogStyle
	byCode map[string]*models.CatalogStyle
}

// Load parses the embedded style definitions.
func Load() (*Catalog, error) {
	entries, err := styleData.ReadDir("data")
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog data: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	c := &Catalog{byCode: make(map[string]*models.CatalogStyle)}
	for _, entry := range entries {
		raw, err := styleData.ReadFile("data/" + entry.Name())
		if err != nil {
			return nil, err
		}

		var style models.CatalogStyle
		if err := json.Unmarshal(raw, &style); err != nil {
			return nil, fmt.Errorf("failed to parse catalog style %s: %w", entry.Name(), err)
		}
		c.styles = append(c.styles, style)
	}

	for i := range c.styles {
		c.byCode[c.styles[i].StyleCode] = &c.styles[i]
	}
	return c, nil
}

// Styles returns all catalog styles.
func (c *Catalog) Styles() []models.CatalogStyle {
	return c.styles
}

// StyleByCode looks up a style by its vendor style code.
func (c *Catalog) StyleByCode(code string) (*models.CatalogStyle, bool) {
	s, ok := c.byCode[code]
	return s, ok
}

// Filter intersects a catalog style with a live stock snapshot. A nil
// snapshot means stock is unknown, and the result is zero orderable colors:
// the system fails closed on stock uncertainty rather than overselling.
// Color-name matching is case-insensitive and trimmed; size lists always
// come from the snapshot, since catalog colors carry no size data.
func Filter(style models.CatalogStyle, snap *models.StockSnapshot) models.OrderableStyle {
	out := models.OrderableStyle{
		StyleID:   style.StyleID,
		StyleCode: style.StyleCode,
		StyleName: style.StyleName,
	}

	if snap == nil {
		out.StockUnknown = true
		return out
	}

	out.WarehouseCode = snap.WarehouseCode

	snapByName := make(map[string]*models.ColorStock, len(snap.Colors))
	for i := range snap.Colors {
		snapByName[normalizeColorName(snap.Colors[i].ColorName)] = &snap.Colors[i]
	}

	for _, color := range style.Colors {
		stocked, ok := snapByName[normalizeColorName(color.ColorName)]
		if !ok {
			continue
		}
		out.Colors = append(out.Colors, models.ColorStock{
			CatalogColor: color,
			Sizes:        stocked.Sizes,
		})
	}

	out.TotalColors = len(out.Colors)
	return out
}

func normalizeColorName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/LixUb/ZoNaTrip/internal/domain/models"
	"github.com/LixUb/ZoNaTrip/internal/utils"

	"github.com/samber/lo"
)

// FormatOrder turns a quantity mapping into priced order lines in catalog
// order. Entries with unknown codes or non-positive / non-integer quantities
// are dropped. It never fails.
func FormatOrder(c *PriceCatalog, quantities map[string]any) ([]models.OrderLine, int64) {
	lines := []models.OrderLine{}
	if c == nil || len(quantities) == 0 {
		return lines, 0
	}

	var total int64
	for _, e := range c.entries {
		raw, ok := quantities[e.Code]
		if !ok {
			continue
		}
		qty, ok := quantityOf(raw)
		if !ok || qty <= 0 {
			continue
		}
		if e.Price > 0 && qty > math.MaxInt64/e.Price {
			continue
		}
		lineTotal := qty * e.Price
		if total > math.MaxInt64-lineTotal {
			continue
		}
		total += lineTotal
		lines = append(lines, models.OrderLine{
			Code:      e.Code,
			Name:      e.Name,
			Quantity:  qty,
			UnitPrice: e.Price,
			LineTotal: lineTotal,
		})
	}
	return lines, total
}

// Itemize renders one line per order line, e.g. "2 x Kopi @ Rp10.000 = Rp20.000".
func Itemize(lines []models.OrderLine) string {
	if len(lines) == 0 {
		return "-"
	}
	return strings.Join(lo.Map(lines, func(l models.OrderLine, _ int) string {
		return fmt.Sprintf("%d x %s @ %s = %s",
			l.Quantity, l.Name, utils.FormatRupiah(l.UnitPrice), utils.FormatRupiah(l.LineTotal))
	}), "\n")
}

func quantityOf(v any) (int64, bool) {
	switch q := v.(type) {
	case int:
		return int64(q), true
	case int64:
		return q, true
	case json.Number:
		n, err := q.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	case float64:
		if math.IsNaN(q) || math.IsInf(q, 0) || q != math.Trunc(q) || q > math.MaxInt64 || q < math.MinInt64 {
			return 0, false
		}
		return int64(q), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(q), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

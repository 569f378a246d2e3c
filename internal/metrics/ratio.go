package metrics

import (
	"math"
	"time"

	"github.com/guregu/null/v6"

	"github.com/seenimoa/companydash/pkg/models"
)

// Ratio divides num by den. The result is null when either side is null, the
// denominator is exactly zero, or the quotient is not finite.
func Ratio(num, den null.Float) null.Float {
	if !num.Valid || !den.Valid || den.Float64 == 0 {
		return null.Float{}
	}
	return finite(num.Float64 / den.Float64)
}

// Growth returns cur/prev - 1 under the same rules as Ratio.
func Growth(cur, prev null.Float) null.Float {
	r := Ratio(cur, prev)
	if !r.Valid {
		return r
	}
	return null.FloatFrom(r.Float64 - 1)
}

func finite(v float64) null.Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

// nonZero keeps v only when it is valid and not zero.
func nonZero(v null.Float) null.Float {
	if !v.Valid || v.Float64 == 0 {
		return null.Float{}
	}
	return v
}

// orZero returns the value of v, or 0 when v is absent.
func orZero(v null.Float) float64 {
	if v.Valid {
		return v.Float64
	}
	return 0
}

// itemValue resolves a canonical item for one period, applying EBITDA
// derivation when enabled. companion holds the same period's items from
// another statement; D&A is usually reported on the cash-flow statement.
func (e *Engine) itemValue(items, companion models.LineItems, item Item) null.Float {
	v := e.vocab.Lookup(items, item)
	if v.Valid || item != ItemEBITDA || !e.caps.DeriveEBITDA {
		return v
	}
	ebit := e.vocab.Lookup(items, ItemEBIT)
	da := e.vocab.Lookup(items, ItemDepreciation)
	if !da.Valid {
		da = e.vocab.Lookup(companion, ItemDepreciation)
	}
	if !ebit.Valid || !da.Valid {
		return null.Float{}
	}
	return null.FloatFrom(ebit.Float64 + da.Float64)
}

// itemsAt returns the items of the period of stmt ending on end, or nil.
func itemsAt(stmt models.Statement, end time.Time) models.LineItems {
	for _, p := range stmt.Periods {
		if p.End.Equal(end) {
			return p.Items
		}
	}
	return nil
}

// latestValue returns the item's value from the most recent period that
// reports it.
func (e *Engine) latestValue(stmt, companion models.Statement, item Item) null.Float {
	periods := stmt.Ascending()
	for i := len(periods) - 1; i >= 0; i-- {
		if v := e.itemValue(periods[i].Items, itemsAt(companion, periods[i].End), item); v.Valid {
			return v
		}
	}
	return null.Float{}
}

// trailingSum adds the item over the last four quarters of stmt (fewer when
// the history is short), skipping quarters that do not report it. The result
// is null only when no quarter reports the item.
func (e *Engine) trailingSum(stmt, companion models.Statement, item Item) null.Float {
	periods := stmt.Ascending()
	if len(periods) > 4 {
		periods = periods[len(periods)-4:]
	}
	var (
		sum   float64
		found bool
	)
	for _, p := range periods {
		if v := e.itemValue(p.Items, itemsAt(companion, p.End), item); v.Valid {
			sum += v.Float64
			found = true
		}
	}
	if !found {
		return null.Float{}
	}
	return null.FloatFrom(sum)
}

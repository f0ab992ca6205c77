package rental

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// PricingResult carries full-precision amounts; round only for display.
type PricingResult struct {
	Days            int             `json:"days"`
	WeeklyPrice     decimal.Decimal `json:"weekly_price"`
	ExtraDaysCharge decimal.Decimal `json:"extra_days_charge"`
	BundleDiscount  decimal.Decimal `json:"bundle_discount"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee"`
	Total           decimal.Decimal `json:"total"`
	RequiresContact bool            `json:"requires_contact"`
	Message         string          `json:"message,omitempty"`
}

const contactMessage = "rentals of 15 days or more are quoted individually, please contact us"

var hundred = decimal.NewFromInt(100)

// Quote prices a cart for a rental window. Pure: no I/O, config passed in.
//
// Tiering is by day count: up to 7 days costs exactly the weekly price, days
// 8..14 each add WeeklyPercentIncrease percent of the weekly price, and 15+
// days are not auto-quoted at all. The delivery fee is a top-up to the
// configured minimum order value, not a flat charge.
func Quote(items []CartItem, start, end time.Time, cfg PricingConfig, delivery DeliveryType) PricingResult {
	days := RentalDays(start, end)

	weekly := decimal.Zero
	bundlePortion := decimal.Zero
	for _, it := range items {
		line := it.WeeklyUnitPrice.Mul(decimal.NewFromInt(int64(it.Qty)))
		weekly = weekly.Add(line)
		if it.InBundle {
			bundlePortion = bundlePortion.Add(line)
		}
	}

	if days <= 0 {
		// Degenerate display case: raw item sum, no fees or discounts.
		return PricingResult{Days: days, WeeklyPrice: weekly, Subtotal: weekly, Total: weekly}
	}
	if days >= 15 {
		return PricingResult{Days: days, RequiresContact: true, Message: contactMessage}
	}

	res := PricingResult{Days: days, WeeklyPrice: weekly}
	if days > 7 {
		extraDays := days - 7
		if extraDays > 7 {
			extraDays = 7
		}
		res.ExtraDaysCharge = weekly.
			Mul(decimal.NewFromInt(int64(extraDays))).
			Mul(cfg.WeeklyPercentIncrease).
			Div(hundred)
	}
	res.BundleDiscount = bundlePortion.Mul(cfg.BundleDiscountPercent).Div(hundred)
	res.Subtotal = weekly.Add(res.ExtraDaysCharge).Sub(res.BundleDiscount)

	minOrder := cfg.MinOrderValue
	if delivery == DeliveryAirport {
		minOrder = cfg.AirportMinOrder
	}
	if fee := minOrder.Sub(res.Subtotal); fee.IsPositive() {
		res.DeliveryFee = fee
	}
	res.Total = res.Subtotal.Add(res.DeliveryFee)
	return res
}

// RentalDays is the billed day count: hours between the endpoints, divided by
// 24 and rounded up.
func RentalDays(start, end time.Time) int {
	return int(math.Ceil(end.Sub(start).Hours() / 24))
}

// Rounded returns a copy with every amount rounded to 2 decimals for display.
func (r PricingResult) Rounded() PricingResult {
	r.WeeklyPrice = r.WeeklyPrice.Round(2)
	r.ExtraDaysCharge = r.ExtraDaysCharge.Round(2)
	r.BundleDiscount = r.BundleDiscount.Round(2)
	r.Subtotal = r.Subtotal.Round(2)
	r.DeliveryFee = r.DeliveryFee.Round(2)
	r.Total = r.Total.Round(2)
	return r
}

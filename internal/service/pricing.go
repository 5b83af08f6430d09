package service

import "github.com/iliyamo/theatre-booking/internal/model"

// ComputePricing derives the price of a booking from the screen rate and
// the slot duration.  It is a pure function: equal inputs always give
// equal totals.  The discount is recorded on the booking but never
// changes the total, so a caller cannot lower its own price.
//
//	basePrice = pricePerHour * duration
//	total     = basePrice + sum(charges)
//	remaining = total - advancePaid
func ComputePricing(pricePerHour, duration float64, charges []model.Charge, discount model.Discount, advancePaid float64) (model.Pricing, model.PaymentInfo) {
	base := round2(pricePerHour * duration)
	total := base
	for _, c := range charges {
		total += c.Amount
	}
	total = round2(total)
	if charges == nil {
		charges = []model.Charge{}
	}
	return model.Pricing{
			BasePrice:         base,
			AdditionalCharges: charges,
			DiscountApplied:   discount,
			TotalAmount:       total,
		}, model.PaymentInfo{
			AdvancePaid:     advancePaid,
			RemainingAmount: round2(total - advancePaid),
		}
}

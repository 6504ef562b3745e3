package entities

import "time"

// Voucher is a percentage discount code applied at booking creation
type Voucher struct {
	ID                 string    `json:"id" db:"id"`
	Code               string    `json:"code" db:"code"`
	DiscountPercentage int       `json:"discount_percentage" db:"discount_percentage"`
	ExpiryDate         time.Time `json:"expiry_date" db:"expiry_date"`
	IsActive           bool      `json:"is_active" db:"is_active"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// Usable reports whether the voucher may still be redeemed
func (v *Voucher) Usable(now time.Time) bool {
	return v.IsActive && v.ExpiryDate.After(now)
}

// Apply returns the price after the voucher discount
func (v *Voucher) Apply(price int64) int64 {
	return price - price*int64(v.DiscountPercentage)/100
}

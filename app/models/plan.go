package models

import "time"

// Plan is a billing tier. Rows are reference data seeded by migration and
// read-only at runtime; Slug is the identifier the payment gateway knows.
type Plan struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Slug        string    `gorm:"type:varchar(50);not null;uniqueIndex" json:"slug"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	PriceCents  int       `gorm:"not null;default:0" json:"price_cents"`
	ClientSlots int       `gorm:"not null;default:0" json:"client_slots"`
	IsActive    bool      `gorm:"not null;default:true;index" json:"is_active"`
	ViewCount   uint64    `gorm:"not null;default:0" json:"view_count"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Price returns the plan price in whole currency units, for display and
// analytics revenue reporting.
func (p *Plan) Price() float64 {
	return float64(p.PriceCents) / 100
}

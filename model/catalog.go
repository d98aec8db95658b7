package model

import "time"

type Brand struct {
	ID          string `gorm:"primaryKey;type:text;not null"`
	Name        string `gorm:"unique;not null;size:120"`
	Slug        string `gorm:"unique;not null;size:140"`
	Description string `gorm:"type:text"`
	WebsiteURL  string `gorm:"size:500"`
	LogoURL     string `gorm:"size:500"`
	IsActive    bool   `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Category struct {
	ID        string `gorm:"primaryKey;type:text;not null"`
	Name      string `gorm:"unique;not null;size:120"`
	Slug      string `gorm:"unique;not null;size:140"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Coupon struct {
	ID          string `gorm:"primaryKey;type:text;not null"`
	BrandID     string `gorm:"not null;index"`
	CategoryID  string `gorm:"not null;index"`
	Title       string `gorm:"not null;size:200"`
	Description string `gorm:"type:text"`
	Code        string `gorm:"size:64"`
	DiscountPct int    `gorm:"not null;default:0"`
	TermsURL    string `gorm:"size:500"`
	StartsAt    *time.Time
	ExpiresAt   *time.Time `gorm:"index"`
	IsActive    bool       `gorm:"not null;default:true"`
	ClickCount  int64      `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

package model

import "time"

type User struct {
	ID          string `gorm:"primaryKey;type:text;not null"`
	Email       string `gorm:"unique;not null;size:255"`
	Username    string `gorm:"unique;not null;size:30"`
	Password    string `gorm:"not null"`
	Role        string `gorm:"not null;default:user;size:20"`
	IsActive    bool   `gorm:"not null;default:true"`
	LastLogin   *time.Time
	LastLoginIP string `gorm:"size:45"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Favorite struct {
	ID        string `gorm:"primaryKey;type:text;not null"`
	UserID    string `gorm:"not null;index;uniqueIndex:idx_fav_user_coupon"`
	CouponID  string `gorm:"not null;index;uniqueIndex:idx_fav_user_coupon"`
	CreatedAt time.Time
}

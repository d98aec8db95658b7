package seeders

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/couponhub/coupon_api/model"
)

// CatalogSeeder loads a starter set of brands, categories and coupons so a
// fresh environment has something to browse.
type CatalogSeeder struct {
	db *gorm.DB
}

func NewCatalogSeeder(db *gorm.DB) *CatalogSeeder {
	return &CatalogSeeder{db: db}
}

func (s *CatalogSeeder) SeedCatalog() error {
	var count int64
	if err := s.db.Model(&model.Brand{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Catalog already seeded, skipping")
		return nil
	}

	brands := []model.Brand{
		{ID: uuid.NewString(), Name: "Acme Store", Slug: "acme-store", WebsiteURL: "https://acme.example.com", IsActive: true},
		{ID: uuid.NewString(), Name: "Northwind Outfitters", Slug: "northwind-outfitters", WebsiteURL: "https://northwind.example.com", IsActive: true},
		{ID: uuid.NewString(), Name: "Globex Electronics", Slug: "globex-electronics", WebsiteURL: "https://globex.example.com", IsActive: true},
	}
	if err := s.db.Create(&brands).Error; err != nil {
		return err
	}

	categories := []model.Category{
		{ID: uuid.NewString(), Name: "Electronics", Slug: "electronics", IsActive: true},
		{ID: uuid.NewString(), Name: "Clothing", Slug: "clothing", IsActive: true},
		{ID: uuid.NewString(), Name: "Home & Garden", Slug: "home-garden", IsActive: true},
	}
	if err := s.db.Create(&categories).Error; err != nil {
		return err
	}

	expiry := time.Now().AddDate(0, 1, 0)
	coupons := []model.Coupon{
		{
			ID:          uuid.NewString(),
			BrandID:     brands[0].ID,
			CategoryID:  categories[1].ID,
			Title:       "20% off sitewide",
			Code:        "SAVE20",
			DiscountPct: 20,
			ExpiresAt:   &expiry,
			IsActive:    true,
		},
		{
			ID:          uuid.NewString(),
			BrandID:     brands[2].ID,
			CategoryID:  categories[0].ID,
			Title:       "15% off laptops",
			Code:        "LAPTOP15",
			DiscountPct: 15,
			ExpiresAt:   &expiry,
			IsActive:    true,
		},
		{
			ID:          uuid.NewString(),
			BrandID:     brands[1].ID,
			CategoryID:  categories[2].ID,
			Title:       "Free shipping on orders over $50",
			DiscountPct: 0,
			IsActive:    true,
		},
	}
	if err := s.db.Create(&coupons).Error; err != nil {
		return err
	}

	log.Printf("Seeded %d brands, %d categories, %d coupons", len(brands), len(categories), len(coupons))
	return nil
}

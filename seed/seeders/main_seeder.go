package seeders

import (
	"log"

	"gorm.io/gorm"
)

// MainSeeder coordinates all seeding operations.
type MainSeeder struct {
	db *gorm.DB
}

func NewMainSeeder(db *gorm.DB) *MainSeeder {
	return &MainSeeder{db: db}
}

// SeedAll runs every seeder in dependency order.
func (s *MainSeeder) SeedAll() error {
	log.Println("Starting database seeding...")

	adminSeeder := NewAdminSeeder(s.db)
	if err := adminSeeder.SeedAdmin(); err != nil {
		log.Printf("Admin seeding failed: %v", err)
		return err
	}

	catalogSeeder := NewCatalogSeeder(s.db)
	if err := catalogSeeder.SeedCatalog(); err != nil {
		log.Printf("Catalog seeding failed: %v", err)
		return err
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

func (s *MainSeeder) SeedAdminOnly() error {
	return NewAdminSeeder(s.db).SeedAdmin()
}

func (s *MainSeeder) SeedCatalogOnly() error {
	return NewCatalogSeeder(s.db).SeedCatalog()
}

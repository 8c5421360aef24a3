package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

// AddIndexes adds the composite indexes the listing feed and credit ledger rely on
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Listing feed: published listings by recency, per category
		{"classified_listings", "idx_listings_published_bumped", "published, bumped_at"},
		{"classified_listings", "idx_listings_category_bumped", "category_id, bumped_at"},

		// Credit balance lookups
		{"credits", "idx_credits_user_spent", "user_id, spent"},
		{"credits", "idx_credits_org_spent", "organization_id, spent"},
		{"credits", "idx_credits_purchase", "purchase_type, purchase_id"},

		// Sponsorship lookups
		{"sponsorships", "idx_sponsorships_org_level", "organization_id, level"},
		{"sponsorships", "idx_sponsorships_sponsorable", "sponsorable_type, sponsorable_id"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			log.Printf("Index %s already exists, skipping", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Printf("Created index %s on %s(%s)", idx.name, idx.table, idx.columns)
	}

	return nil
}

// MigrateDatabase runs the post-AutoMigrate steps: indexes and seed data
func MigrateDatabase(db *gorm.DB) error {
	if err := AddIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	if err := Seed(db); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	return nil
}

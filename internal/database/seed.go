package database

import (
	"fmt"

	"github.com/yukikurage/classifieds-api/internal/models"
	"gorm.io/gorm"
)

// DefaultCategories are the listing categories every deployment starts with.
var DefaultCategories = []models.ListingCategory{
	{Name: "Conference CFP", Slug: "cfp", Cost: 1, Rules: "Currently open for proposals, with link to form."},
	{Name: "Education/Courses", Slug: "education", Cost: 1, Rules: "Educational material and/or schools/bootcamps."},
	{Name: "Conferences", Slug: "conference", Cost: 1, Rules: "Must be a tech conference."},
	{Name: "Job Listings", Slug: "jobs", Cost: 25, Rules: "Companies offering employment right now."},
	{Name: "Mentors", Slug: "mentors", Cost: 1, Rules: "Available to help folks with a specific skill set."},
	{Name: "Mentees", Slug: "mentees", Cost: 1, Rules: "Looking for a mentor in a specific area."},
	{Name: "Stuff for Sale", Slug: "forsale", Cost: 1, Rules: "Personally owned physical items for sale."},
	{Name: "Upcoming Events", Slug: "events", Cost: 1, Rules: "In-person or online events with date included."},
	{Name: "Products/Tools", Slug: "products", Cost: 5, Rules: "Must be available right now."},
	{Name: "Miscellaneous", Slug: "misc", Cost: 1, Rules: "Must not fit in any other category."},
}

// Seed inserts the default listing categories. Existing rows are left as they are.
func Seed(db *gorm.DB) error {
	for _, category := range DefaultCategories {
		c := category
		if err := db.Where(models.ListingCategory{Slug: c.Slug}).FirstOrCreate(&c).Error; err != nil {
			return fmt.Errorf("failed to seed category %s: %w", c.Slug, err)
		}
	}
	return nil
}

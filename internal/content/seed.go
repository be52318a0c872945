package content

import "pulse/internal/models"

// defaultCategories is the reference category set, written to storage once
// on first run and never updated by any operation.
func defaultCategories() []models.Category {
	return []models.Category{
		{ID: "1", Name: "Technology", Description: "Latest tech news and reviews"},
		{ID: "2", Name: "Travel", Description: "Explore the world through stories and photos"},
		{ID: "3", Name: "Food", Description: "Recipes, restaurant reviews, and culinary adventures"},
		{ID: "4", Name: "Lifestyle", Description: "Health, wellness, and personal growth"},
	}
}

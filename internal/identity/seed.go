package identity

import (
	"log"
	"time"

	"pulse/internal/models"
)

// SeedPassword is the password every seeded demo account accepts.
const SeedPassword = "password"

// SeedDefaults loads the demo roster when the store is empty. Roles cover
// the whole hierarchy so the moderation views have something to show.
func (s *Store) SeedDefaults() {
	if len(s.Users()) > 0 {
		return
	}
	hash, err := HashPassword(SeedPassword)
	if err != nil {
		log.Printf("identity: seed password hash: %v", err)
		hash = ""
	}
	for _, u := range defaultRoster {
		s.AddUser(u, hash)
	}
}

var defaultRoster = []models.User{
	{
		ID:        "1",
		Username:  "admin",
		Avatar:    "https://images.pexels.com/photos/3763188/pexels-photo-3763188.jpeg?auto=compress&cs=tinysrgb&w=150",
		Role:      models.RoleAdmin,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	},
	{
		ID:        "2",
		Username:  "moderator",
		Avatar:    "https://images.pexels.com/photos/1222271/pexels-photo-1222271.jpeg?auto=compress&cs=tinysrgb&w=150",
		Role:      models.RoleModerator,
		CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	},
	{
		ID:        "3",
		Username:  "johnsmith",
		Avatar:    "https://images.pexels.com/photos/614810/pexels-photo-614810.jpeg?auto=compress&cs=tinysrgb&w=150",
		Role:      models.RoleUser,
		CreatedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	},
	{
		ID:        "4",
		Username:  "sarahjones",
		Avatar:    "https://images.pexels.com/photos/774909/pexels-photo-774909.jpeg?auto=compress&cs=tinysrgb&w=150",
		Role:      models.RoleUser,
		CreatedAt: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
	},
}

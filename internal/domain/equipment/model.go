package equipment

import (
	"time"

	"rental-app/internal/domain/users"
)

// Equipment is a single exclusive rental unit. Availability=false is the
// equipment lock: no new booking may target the unit until it is released.
type Equipment struct {
	ID      uint `gorm:"primaryKey"`
	OwnerID uint `gorm:"index"`
	Owner   users.User

	Name      string `gorm:"not null"`
	Category  string
	DailyRate int64 `gorm:"not null"` // whole currency units per day

	Availability bool `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

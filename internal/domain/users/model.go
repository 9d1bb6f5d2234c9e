package users

import "time"

// User is the authenticated identity supplied by the external auth
// service. The booking core only reads it; registration, login and
// verification live outside this repository.
type User struct {
	ID    uint   `gorm:"primaryKey"`
	Name  string
	Email string `gorm:"not null;uniqueIndex:idx_users_email"`
	Role  string `gorm:"type:varchar(20);not null;default:'renter'"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

package database

import (
	"fmt"

	"rental-app/internal/domain/bookings"
	"rental-app/internal/domain/equipment"
	"rental-app/internal/domain/receipts"
	"rental-app/internal/domain/users"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Init opens the Postgres pool and migrates the booking-core schema. The
// handle is returned to the caller and injected into repositories; there is
// no package-level connection.
func Init(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database: empty DSN")
	}

	// TranslateError turns driver unique-violation errors into
	// gorm.ErrDuplicatedKey, which the receipt repository relies on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("database: connect: %w", err)
	}

	if err := db.AutoMigrate(
		&users.User{},
		&equipment.Equipment{},
		&bookings.Booking{},
		&receipts.Receipt{},
	); err != nil {
		return nil, fmt.Errorf("database: migrate: %w", err)
	}

	return db, nil
}

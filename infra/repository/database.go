package repository

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewDBConnection opens the database and migrates the donation tables. The
// organizations table is owned by the marketplace CRUD and is migrated here
// only so a fresh development database works out of the box.
func NewDBConnection(databaseUrl string) (*gorm.DB, error) {
	connection, err := gorm.Open(postgres.Open(databaseUrl), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := connection.AutoMigrate(&Donation{}, &WebhookEvent{}, &Organization{}); err != nil {
		return nil, err
	}
	return connection, nil
}

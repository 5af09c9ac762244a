package db

import (
	"log"

	"gorm.io/gorm"

	"docmanager/internal/domain"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.User{},
		&domain.Tenant{},
		&domain.Membership{},
		&domain.Role{},
		&domain.Group{},
		&domain.Folder{},
		&domain.FolderACL{},
		&domain.StoredFile{},
		&domain.Document{},
		&domain.ACL{},
		&domain.AuditLog{},
	)
	if err != nil {
		return err
	}

	log.Println("Database schema migrated successfully")
	return nil
}

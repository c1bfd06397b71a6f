package migration

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/ahmedEssyad/travel-connect-sub001/entities"
)

func Migrate(db *gorm.DB) error {
	// Setup PostgreSQL extensions for geographical calculations
	db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")
	db.Exec("CREATE EXTENSION IF NOT EXISTS \"earthdistance\" CASCADE;")
	db.Exec("CREATE EXTENSION IF NOT EXISTS \"cube\";")

	if err := db.AutoMigrate(&entities.User{}); err != nil {
		log.Fatalf("Error migrating user database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.BloodRequest{}); err != nil {
		log.Fatalf("Error migrating blood request database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.MatchedDonor{}); err != nil {
		log.Fatalf("Error migrating matched donor database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.Donation{}); err != nil {
		log.Fatalf("Error migrating donation database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.DonationTimelineEntry{}); err != nil {
		log.Fatalf("Error migrating donation timeline database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.DonationDispute{}); err != nil {
		log.Fatalf("Error migrating donation dispute database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.Notification{}); err != nil {
		log.Fatalf("Error migrating notification database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.ChatChannel{}); err != nil {
		log.Fatalf("Error migrating chat channel database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.ChatMessage{}); err != nil {
		log.Fatalf("Error migrating chat message database: %v", err)
		return err
	}

	fmt.Println("Database migration complete")
	return nil
}

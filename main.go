package main

import (
	"log"

	"github.com/ahmedEssyad/travel-connect-sub001/cmd/config"
	migration "github.com/ahmedEssyad/travel-connect-sub001/cmd/database/migrate"
	"github.com/ahmedEssyad/travel-connect-sub001/internal/utils"
)

func main() {
	utils.LoadConfig()

	db, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := migration.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	app, err := config.NewApp(db)
	if err != nil {
		log.Fatalf("failed to set up application: %v", err)
	}

	if err := app.Listen(":8080"); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

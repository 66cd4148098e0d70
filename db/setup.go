package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/taskcrew-dev/taskcrew/internal/models"
)

var DB *gorm.DB

func ConnectDatabase(dsn string) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})

	if err != nil {
		return err
	}

	return nil
}

func MigrateDatabase() error {
	models := []interface{}{
		&models.User{},
		&models.Team{},
		&models.TeamMember{},
		&models.Task{},
		&models.TaskAttachment{},
		&models.TaskComment{},
	}

	migrator := DB.Migrator()

	for _, model := range models {
		if !migrator.HasTable(model) {
			if err := DB.AutoMigrate(model); err != nil {
				return err
			}
		}
	}

	return nil
}

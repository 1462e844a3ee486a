package dao

import (
	"fmt"
	"rag-chatbot-backend/config"
	"rag-chatbot-backend/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init() error {
	db, err := gorm.Open(mysql.Open(config.Cfg.MySQL.DSN()), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to mysql: %v", err)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Folder{},
		&model.Document{},
		&model.Session{},
		&model.Message{},
	); err != nil {
		return fmt.Errorf("failed to migrate tables: %v", err)
	}

	DB = db
	return nil
}

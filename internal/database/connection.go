package database

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/thereayou/voxus/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func (d *Database) Connect(dsn string) error {
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		// ErrDuplicatedKey вместо сырых ошибок драйвера: на нем держатся инварианты уникальности
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return err
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.GroupConversation{},
		&models.GroupMember{},
		&models.Message{},
		&models.Friendship{},
		&models.VideoCall{},
	)
	if err != nil {
		return err
	}

	d.db = db
	log.Info().Msg("postgres connected, schema migrated")

	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

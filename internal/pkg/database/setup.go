package database

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"qwiktest/internal/config"
	"qwiktest/internal/model"
)

// DB is the shared database handle.
var DB *gorm.DB

// Setup connects with the global config and migrates the schema.
func Setup() error {
	cfg := config.GlobalConfig.Database

	db, err := Connect(cfg.Driver, buildDSN(cfg.Driver, cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.DBName, cfg.DSN))
	if err != nil {
		return err
	}
	DB = db

	return Migrate(DB)
}

func buildDSN(driver, host, port, username, password, dbname, dsn string) string {
	if dsn != "" {
		return dsn
	}

	switch driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			host, port, username, password, dbname)
	case "sqlite":
		return dbname
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			username, password, host, port, dbname)
	}
}

// Connect opens a gorm connection for the given driver name.
func Connect(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if driver == "sqlite" {
		// sqlite allows a single writer
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.SubCategory{},
		&model.Section{},
		&model.SubCategorySection{},
		&model.Skill{},
		&model.Topic{},
		&model.Question{},
		&model.Exam{},
		&model.ExamSection{},
		&model.ExamQuestion{},
		&model.ExamSchedule{},
		&model.Quiz{},
		&model.QuizQuestion{},
		&model.ExamSession{},
		&model.ExamSessionQuestion{},
		&model.QuizSession{},
		&model.QuizSessionQuestion{},
		&model.Plan{},
		&model.Subscription{},
		&model.Payment{},
		&model.Setting{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

// GetDB returns the shared database handle.
func GetDB() *gorm.DB {
	return DB
}

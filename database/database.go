package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sachit-ab-lele/POC2-local/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the process-wide database handle. It is assigned once by InitDB at
// startup (or by the test harness) and released by CloseDB at shutdown.
var DB *gorm.DB

// InitDB opens the MySQL connection, runs migrations and seeds the login
// users in development mode.
func InitDB() error {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	dbUser := getEnv("DB_USER", "voteuser")
	dbPassword := getEnv("DB_PASSWORD", "votepassword")
	dbHost := getEnv("DB_HOST", "mysql")
	dbPort := getEnv("DB_PORT", "3306")
	dbName := getEnv("DB_NAME", "votingdb")

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbUser, dbPassword, dbHost, dbPort, dbName)

	var err error
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: newLogger,
		// Duplicate-key errors must surface as gorm.ErrDuplicatedKey: the
		// vote ledger's conditional insert depends on it.
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(DB); err != nil {
		return err
	}

	if getEnv("ENVIRONMENT", "development") == "development" {
		seedUsers()
	}

	log.Println("database connected and migrated")
	return nil
}

// Migrate applies the schema for all persistent models.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Poll{},
		&models.VoteRecord{},
		&models.Snapshot{},
		&models.User{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}
	return nil
}

// seedUsers creates the default login users if the table is empty. Passwords
// are stored as-is to match the upstream identity service this stands in for.
func seedUsers() {
	var count int64
	DB.Model(&models.User{}).Count(&count)
	if count > 0 {
		return
	}

	users := []models.User{
		{Username: "admin", Password: "admin", Role: "admin"},
		{Username: "user", Password: "password", Role: "user"},
	}
	if err := DB.Create(&users).Error; err != nil {
		log.Printf("failed to seed users: %v", err)
		return
	}
	log.Println("seeded default users")
}

// CloseDB releases the underlying connection pool.
func CloseDB() {
	if DB == nil {
		return
	}
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("failed to get database connection: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("failed to close database connection: %v", err)
		return
	}
	log.Println("database connection closed")
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

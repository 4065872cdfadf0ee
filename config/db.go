package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"hospital-backend/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func envOrDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	if q.Get("loc") == "" {
		q.Set("loc", "Local")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode()), nil
}

func resolveMySQLDSN() (string, error) {
	raw := strings.TrimSpace(os.Getenv("MYSQL_URL"))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}

	if raw != "" {
		if strings.HasPrefix(raw, "mysql://") {
			return mysqlDSNFromURL(raw)
		}
		return raw, nil
	}

	user := envOrDefault("DB_USER", "root")
	pass := envOrDefault("DB_PASS", "")
	host := envOrDefault("DB_HOST", "127.0.0.1")
	port := envOrDefault("DB_PORT", "3306")
	dbName := envOrDefault("DB_NAME", "hospital_db")

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, pass, host, port, dbName,
	), nil
}

// SeedDatabase populates the bed-type catalog and a default ward when empty.
// Idempotent; failures are logged, not fatal.
func SeedDatabase() {
	var typeCount int64
	DB.Model(&models.BedTypeSetting{}).Count(&typeCount)
	if typeCount == 0 {
		types := []models.BedTypeSetting{
			{Code: "GEN", Name: "General Ward", CodePrefix: "GEN", Color: "#4caf50", SortOrder: 1},
			{Code: "LTC", Name: "Long-Term Care", CodePrefix: "LTC", Color: "#2196f3", SortOrder: 2},
			{Code: "PC", Name: "Palliative Care", CodePrefix: "PC", Color: "#9c27b0", SortOrder: 3},
			{Code: "ICU", Name: "Intensive Care", CodePrefix: "ICU", Color: "#f44336", SortOrder: 4},
		}
		if err := DB.Create(&types).Error; err != nil {
			log.Printf("warning: failed to seed bed types: %v", err)
		} else {
			log.Println("Bed types seeded")
		}
	}

	var wardCount int64
	DB.Model(&models.Ward{}).Count(&wardCount)
	if wardCount == 0 {
		ward := models.Ward{Name: "Main Ward"}
		if err := DB.Create(&ward).Error; err != nil {
			log.Printf("warning: failed to seed default ward: %v", err)
		} else {
			log.Println("Default ward seeded")
		}
	}
}

func ConnectDatabase() error {
	dsn, err := resolveMySQLDSN()
	if err != nil {
		return err
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: newLogger})
	if err != nil {
		return err
	}

	DB = db

	// AutoMigrate in parent->child order.
	if err := DB.AutoMigrate(
		&models.Ward{},
		&models.BedTypeSetting{},
		&models.Bed{},
		&models.BedStay{},
		&models.ReconcileLog{},
	); err != nil {
		return err
	}

	SeedDatabase()
	return nil
}

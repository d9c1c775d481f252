// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"recordstorebot/internal/logger"
)

// Variables available everywhere
var (
	discogsToken string
	botPassword  string

	baseDir          string
	dbPath           string
	reportsDirectory string
	logsDirectory    string

	sessionTimeout    time.Duration
	lowStockThreshold int
)

const (
	defaultSessionTimeoutHours = 24
	defaultLowStockThreshold   = 2
)

//
// --- Utility Helpers ---
//

// Helper: get a setting based on ENVIRONMENT (dev or prod)
func GetEnvBasedSetting(base string) string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}
	return os.Getenv(fmt.Sprintf("%s_%s", base, strings.ToUpper(env)))
}

// Helper: log which environment is running
func LogCurrentEnvironment() {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	if env == "dev" {
		logger.LogInfo("Running in development environment")
	} else {
		logger.LogInfo("Running in production environment")
	}
}

//
// --- Loaders ---
//

// LoadEnv reads .env file
func LoadEnv() {
	wd, err := os.Getwd()
	if err != nil {
		log.Printf("Could not determine working directory: %v", err)
	}

	err = godotenv.Load(".env")
	if err != nil {
		log.Printf("No .env file found in %s. Using system environment variables.", wd)
	} else {
		log.Printf("Loaded environment variables from .env file in %s", wd)
	}
}

// LoggerConfig returns a logger.Config struct populated from environment
func LoggerConfig() logger.Config {
	logDir := GetEnvBasedSetting("LOGS_DIRECTORY")
	if logDir == "" {
		logDir = "./logs"
	}

	logFormat := GetEnvBasedSetting("LOG_FILE_FORMAT")
	if logFormat == "" {
		logFormat = "bot_%s.log"
	}

	timezone := os.Getenv("TIME_ZONE")
	if timezone == "" {
		timezone = "Local"
	}

	return logger.Config{
		LogsDirectory: logDir,
		LogFileFormat: logFormat,
		TimeZone:      timezone,
	}
}

// ConfigurePaths sets up folders and paths
func ConfigurePaths() {
	wd, err := os.Getwd()
	if err != nil {
		logger.LogFatal("Failed to get working directory: %v", err)
	}
	baseDir = wd

	// Database lives next to the binary unless overridden, so the same file
	// is used regardless of where the process is launched from.
	dbFile := GetEnvBasedSetting("DB_PATH")
	if dbFile != "" {
		dbPath = dbFile
	} else {
		dbPath = filepath.Join(baseDir, "recordstore.db")
	}

	reportsDir := GetEnvBasedSetting("REPORTS_DIRECTORY")
	if reportsDir != "" {
		reportsDirectory = reportsDir
	} else {
		reportsDirectory = filepath.Join(baseDir, "reports")
	}

	logsDir := GetEnvBasedSetting("LOGS_DIRECTORY")
	if logsDir != "" {
		logsDirectory = logsDir
	} else {
		logsDirectory = filepath.Join(baseDir, "logs")
	}
}

// LoadDiscogsConfig sets up Discogs catalog credentials
func LoadDiscogsConfig() error {
	discogsToken = os.Getenv("DISCOGS_TOKEN")
	if discogsToken == "" {
		return fmt.Errorf("DISCOGS_TOKEN is missing from environment")
	}
	return nil
}

// LoadAuthConfig loads the operator password and session settings
func LoadAuthConfig() error {
	botPassword = os.Getenv("BOT_PASSWORD")
	if botPassword == "" {
		return fmt.Errorf("BOT_PASSWORD is missing from environment")
	}

	hours := defaultSessionTimeoutHours
	if raw := os.Getenv("SESSION_TIMEOUT_HOURS"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			logger.LogWarn("Invalid SESSION_TIMEOUT_HOURS: %s, using default %d", raw, defaultSessionTimeoutHours)
		} else {
			hours = parsed
		}
	}
	sessionTimeout = time.Duration(hours) * time.Hour

	lowStockThreshold = defaultLowStockThreshold
	if raw := os.Getenv("LOW_STOCK_THRESHOLD"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			logger.LogWarn("Invalid LOW_STOCK_THRESHOLD: %s, using default %d", raw, defaultLowStockThreshold)
		} else {
			lowStockThreshold = parsed
		}
	}

	return nil
}

//
// --- Getters (exported) ---
//

func DBPath() string {
	return dbPath
}

func ReportsDirectory() string {
	return reportsDirectory
}

func LogsDirectory() string {
	return logsDirectory
}

func DiscogsToken() string {
	return discogsToken
}

func BotPassword() string {
	return botPassword
}

func SessionTimeout() time.Duration {
	if sessionTimeout == 0 {
		return defaultSessionTimeoutHours * time.Hour
	}
	return sessionTimeout
}

func LowStockThreshold() int {
	if lowStockThreshold == 0 {
		return defaultLowStockThreshold
	}
	return lowStockThreshold
}

package config

import (
	"fmt"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

const (
	DEVELOPMENT = "development"
	STAGING     = "staging"
	PRODUCTION  = "production"
)

type DBConf struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type Configuration struct {
	Env       string `json:"env"`
	DBInfo    DBConf `json:"db"`
	ReportDir string `json:"report_dir"`
	CacheSize int    `json:"cache_size"`
}

// EnvOverride - Optional environment overrides for the CLI flags,
// read with the FUNNEL_ prefix (FUNNEL_DB_HOST, FUNNEL_DB_PASS etc).
type EnvOverride struct {
	DBHost    string `envconfig:"DB_HOST"`
	DBPort    int    `envconfig:"DB_PORT"`
	DBUser    string `envconfig:"DB_USER"`
	DBName    string `envconfig:"DB_NAME"`
	DBPass    string `envconfig:"DB_PASS"`
	ReportDir string `envconfig:"REPORT_DIR"`
}

type Services struct {
	Db *gorm.DB
}

var configuration *Configuration
var services = &Services{}

func InitConf(config *Configuration) {
	configuration = config
	initLog(config.Env)
}

func GetConfig() *Configuration {
	if configuration == nil {
		log.Fatal("Config not initialized.")
	}
	return configuration
}

func GetServices() *Services {
	return services
}

func IsDevelopment() bool {
	return GetConfig().Env == DEVELOPMENT
}

func initLog(env string) {
	if env == DEVELOPMENT {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
		log.SetLevel(log.DebugLevel)
		return
	}
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)
}

// OverlayEnv applies FUNNEL_* environment variables on top of the
// flag-provided configuration. Empty values leave the flags untouched.
func OverlayEnv(config *Configuration) error {
	var override EnvOverride
	if err := envconfig.Process("funnel", &override); err != nil {
		return err
	}

	if override.DBHost != "" {
		config.DBInfo.Host = override.DBHost
	}
	if override.DBPort != 0 {
		config.DBInfo.Port = override.DBPort
	}
	if override.DBUser != "" {
		config.DBInfo.User = override.DBUser
	}
	if override.DBName != "" {
		config.DBInfo.Name = override.DBName
	}
	if override.DBPass != "" {
		config.DBInfo.Password = override.DBPass
	}
	if override.ReportDir != "" {
		config.ReportDir = override.ReportDir
	}
	return nil
}

func InitDB(dbConf DBConf) error {
	db, err := gorm.Open("postgres", fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s password=%s sslmode=disable",
		dbConf.Host, dbConf.Port, dbConf.User, dbConf.Name, dbConf.Password))
	if err != nil {
		log.WithFields(log.Fields{"err": err}).Error("Failed Db Initialization")
		return err
	}

	// Connection pooling and logging.
	db.DB().SetMaxIdleConns(5)
	db.DB().SetMaxOpenConns(20)
	db.LogMode(IsDevelopment())

	services.Db = db
	log.Info("Db Service initialized")
	return nil
}

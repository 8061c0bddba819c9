package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/portrush/teesheet/internal/adapters/database/redis"
	"github.com/portrush/teesheet/internal/domain/common/errorz"
	"github.com/portrush/teesheet/internal/domain/entity"
	"github.com/portrush/teesheet/internal/domain/utils/location"
	"github.com/portrush/teesheet/internal/domain/utils/teetime"
	"github.com/portrush/teesheet/pkg/logger"
)

type Config struct {
	Database *gorm.DB
	Redis    *redis.Client
	Settings *Settings
}

// Settings are the inventory settings read from config.yaml and the
// environment.
type Settings struct {
	Club             string
	GreenFee         *float64
	MaxPlayers       int
	Rules            entity.OpeningRules
	BackupTable      string
	StatementTimeout time.Duration
	LockTTL          time.Duration
	BatchSize        int
	MetricsTextfile  string
}

type openingHours struct {
	Open     string `mapstructure:"open"`
	Close    string `mapstructure:"close"`
	Interval int    `mapstructure:"interval"`
}

func setDefaults() {
	viper.SetDefault("service.database.host", "localhost")
	viper.SetDefault("service.database.port", 5432)
	viper.SetDefault("service.database.sslmode", "disable")
	viper.SetDefault("service.redis.port", 6379)

	viper.SetDefault("settings.timezone", "Europe/London")
	viper.SetDefault("settings.inventory.club", "royalportrush")
	viper.SetDefault("settings.inventory.green-fee", 325.00)
	viper.SetDefault("settings.inventory.max-players", entity.DefaultMaxPlayers)
	viper.SetDefault("settings.migration.backup-table", "tee_times_template_backup")
	viper.SetDefault("settings.migration.statement-timeout", "5m")
	viper.SetDefault("settings.migration.lock-ttl", "1h")
	viper.SetDefault("settings.migration.batch-size", 500)

	// Visitor tee times run Monday, Tuesday, Thursday and Friday.
	day := map[string]interface{}{"open": "08:00", "close": "17:00", "interval": 10}
	viper.SetDefault("settings.seed.rules", map[string]interface{}{
		"monday":   day,
		"tuesday":  day,
		"thursday": day,
		"friday":   day,
	})
}

func initConfig(path string) error {
	setDefaults()

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	for key, env := range map[string]string{
		"service.database.url":         "DATABASE_URL",
		"service.redis.host":           "REDIS_HOST",
		"service.redis.port":           "REDIS_PORT",
		"service.redis.password":       "REDIS_PASSWORD",
		"settings.inventory.club":      "DEFAULT_COURSE_ID",
		"settings.inventory.green-fee": "PER_PLAYER_FEE",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			return err
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// Load reads the configuration file (config.yaml in the working directory
// when path is empty), initialises the logger and returns the settings.
func Load(path string) (*Settings, error) {
	if err := initConfig(path); err != nil {
		return nil, err
	}

	err := logger.Init(logger.Config{
		Debug:        viper.GetBool("settings.debug"),
		TimeLocation: location.Location(),
		LogToFile:    viper.GetBool("settings.log-to-file"),
		LogsDir:      viper.GetString("settings.logs-dir"),
	})
	if err != nil {
		return nil, err
	}

	return settings()
}

func settings() (*Settings, error) {
	s := &Settings{
		Club:             viper.GetString("settings.inventory.club"),
		MaxPlayers:       viper.GetInt("settings.inventory.max-players"),
		BackupTable:      viper.GetString("settings.migration.backup-table"),
		StatementTimeout: viper.GetDuration("settings.migration.statement-timeout"),
		LockTTL:          viper.GetDuration("settings.migration.lock-ttl"),
		BatchSize:        viper.GetInt("settings.migration.batch-size"),
		MetricsTextfile:  viper.GetString("settings.metrics.textfile"),
	}
	if fee := viper.GetFloat64("settings.inventory.green-fee"); fee > 0 {
		s.GreenFee = &fee
	}

	rules, err := openingRules()
	if err != nil {
		return nil, err
	}
	s.Rules = rules
	return s, nil
}

func openingRules() (entity.OpeningRules, error) {
	var raw map[string]openingHours
	if err := viper.UnmarshalKey("settings.seed.rules", &raw); err != nil {
		return nil, fmt.Errorf("settings.seed.rules: %w", err)
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	rules := make(entity.OpeningRules, len(raw))
	for _, name := range names {
		weekday, ok := teetime.ParseWeekday(name)
		if !ok {
			return nil, fmt.Errorf("settings.seed.rules: unknown weekday %q", name)
		}
		hours := raw[name]
		rules[weekday] = entity.OpeningHours{
			Open:     hours.Open,
			Close:    hours.Close,
			Interval: time.Duration(hours.Interval) * time.Minute,
		}
	}
	return rules, nil
}

func dsn() string {
	if url := viper.GetString("service.database.url"); url != "" {
		return url
	}
	return fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		viper.GetString("service.database.user"),
		viper.GetString("service.database.password"),
		viper.GetString("service.database.name"),
		viper.GetString("service.database.host"),
		viper.GetInt("service.database.port"),
		viper.GetString("service.database.sslmode"),
	)
}

// OpenDatabase connects to PostgreSQL. A failed connection is reported as
// errorz.ErrConnectivity.
func OpenDatabase() (*gorm.DB, error) {
	var gormConfig *gorm.Config
	if viper.GetBool("settings.debug") {
		newLogger := gormLogger.New(
			log.New(os.Stderr, "\r\n", log.LstdFlags),
			gormLogger.Config{
				SlowThreshold: time.Second,
				LogLevel:      gormLogger.Info,
				Colorful:      true,
			},
		)
		gormConfig = &gorm.Config{
			Logger: newLogger,
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		}
	}

	database, err := gorm.Open(postgres.Open(dsn()), gormConfig)
	if err != nil {
		return nil, errorz.Connectivity(err)
	}
	logger.Log.Debug("Successfully connected to the database")
	return database, nil
}

// OpenRedis connects to Redis when service.redis.host is set. It returns nil
// without error when Redis is not configured.
func OpenRedis() (*redis.Client, error) {
	host := viper.GetString("service.redis.host")
	if host == "" {
		return nil, nil
	}
	client, err := redis.New(redis.Options{
		Host:     host,
		Port:     viper.GetString("service.redis.port"),
		Password: viper.GetString("service.redis.password"),
		DB:       viper.GetInt("service.redis.db"),
	})
	if err != nil {
		return nil, err
	}
	logger.Log.Debug("Successfully connected to redis")
	return client, nil
}

// Get loads the configuration and opens every configured store.
func Get(path string) (*Config, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	database, err := OpenDatabase()
	if err != nil {
		return nil, err
	}
	redisClient, err := OpenRedis()
	if err != nil {
		return nil, err
	}
	return &Config{
		Database: database,
		Redis:    redisClient,
		Settings: s,
	}, nil
}

package conf

import (
	"fmt"
	"os"
	"strings"

	"github.com/bestruirui/argus/internal/utils/log"
	"github.com/spf13/viper"
)

type Server struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// CORSAllowOrigins: empty disables cross-origin requests, "*" allows
	// all, otherwise a comma separated origin list.
	CORSAllowOrigins string `mapstructure:"cors_allow_origins"`
}

type Log struct {
	Level string `mapstructure:"level"`
}

type Database struct {
	Path string `mapstructure:"path"`
}

// Source is the external gateway's own store. The monitor only ever reads it,
// except for the circuit breaker which uses a dedicated write DSN.
type Source struct {
	Type     string `mapstructure:"type"` // mysql or postgres
	DSN      string `mapstructure:"dsn"`
	WriteDSN string `mapstructure:"write_dsn"`
}

type Monitor struct {
	SyncIntervalSeconds     int `mapstructure:"sync_interval_seconds"`
	AlertIntervalSeconds    int `mapstructure:"alert_interval_seconds"`
	SnapshotIntervalMinutes int `mapstructure:"snapshot_interval_minutes"`
	CleanIntervalHours      int `mapstructure:"clean_interval_hours"`
	RetentionDays           int `mapstructure:"retention_days"`
	BatchSize               int `mapstructure:"batch_size"`
}

type Alerting struct {
	// DayOffsetHours fixes the "start of day" boundary for daily periods.
	// The gateway deployments this was written for report in UTC+8.
	DayOffsetHours  int `mapstructure:"day_offset_hours"`
	CooldownMinutes int `mapstructure:"cooldown_minutes"`
}

type Notify struct {
	TelegramBotToken string `mapstructure:"telegram_bot_token"`
	TelegramChatID   string `mapstructure:"telegram_chat_id"`
	ProxyURL         string `mapstructure:"proxy_url"`
}

type Auth struct {
	AccessPassword string `mapstructure:"access_password"`
}

type Config struct {
	Server   Server   `mapstructure:"server"`
	Log      Log      `mapstructure:"log"`
	Database Database `mapstructure:"database"`
	Source   Source   `mapstructure:"source"`
	Monitor  Monitor  `mapstructure:"monitor"`
	Alerting Alerting `mapstructure:"alerting"`
	Notify   Notify   `mapstructure:"notify"`
	Auth     Auth     `mapstructure:"auth"`
}

var AppConfig Config

func Load(path string) error {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("json")
		viper.AddConfigPath("data")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix(APP_NAME)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		log.Infof("Using config file: %s", viper.ConfigFileUsed())
	} else {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Infof("Config file not found, creating default config")
			if err := os.MkdirAll("data", 0755); err != nil {
				log.Errorf("Failed to create data directory: %v", err)
			}
			if err := viper.SafeWriteConfigAs("data/config.json"); err != nil {
				log.Errorf("Failed to create default config: %v", err)
			}
		} else {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return nil
}

// SourceWriteDSN returns the circuit breaker DSN, falling back to the read DSN.
func SourceWriteDSN() string {
	if AppConfig.Source.WriteDSN != "" {
		return AppConfig.Source.WriteDSN
	}
	return AppConfig.Source.DSN
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.cors_allow_origins", "")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("database.path", "data/monitor.db")
	viper.SetDefault("source.type", "mysql")
	viper.SetDefault("source.dsn", "")
	viper.SetDefault("source.write_dsn", "")
	viper.SetDefault("monitor.sync_interval_seconds", 5)
	viper.SetDefault("monitor.alert_interval_seconds", 60)
	viper.SetDefault("monitor.snapshot_interval_minutes", 60)
	viper.SetDefault("monitor.clean_interval_hours", 24)
	viper.SetDefault("monitor.retention_days", 30)
	viper.SetDefault("monitor.batch_size", 1000)
	viper.SetDefault("alerting.day_offset_hours", 8)
	viper.SetDefault("alerting.cooldown_minutes", 60)
	viper.SetDefault("notify.telegram_bot_token", "")
	viper.SetDefault("notify.telegram_chat_id", "")
	viper.SetDefault("notify.proxy_url", "")
	viper.SetDefault("auth.access_password", "")
}

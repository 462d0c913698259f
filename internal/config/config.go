package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	CORS     CORSConfig
	Redis    RedisConfig
	MQTT     MQTTConfig
	Reset    ResetConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type SMTPConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	From           string
	TimeoutSeconds int
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// RedisConfig is optional; an empty Addr disables distributed locking.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig is optional; an empty Broker disables audit events.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

type ResetConfig struct {
	OTPTTLMinutes  int
	Link           string
	LockTTLSeconds int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_TIMEOUT_SECONDS", 10)
	v.SetDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:4200"})
	v.SetDefault("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("CORS_ALLOWED_HEADERS", []string{"*"})
	v.SetDefault("CORS_MAX_AGE", 3600)
	v.SetDefault("MQTT_CLIENT_ID", "patient-registration")
	v.SetDefault("MQTT_TOPIC_PREFIX", "patients/audit")
	v.SetDefault("OTP_TTL_MINUTES", 15)
	v.SetDefault("RESET_PASSWORD_LINK", "http://localhost:4200/resetpassword")
	v.SetDefault("LOCK_TTL_SECONDS", 30)
}

func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(homeDir)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file not found: %v. Falling back to environment variables only.", err)
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:        v.GetString("SERVER_PORT"),
			Host:        v.GetString("SERVER_HOST"),
			Environment: v.GetString("ENVIRONMENT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		SMTP: SMTPConfig{
			Host:           v.GetString("SMTP_HOST"),
			Port:           v.GetInt("SMTP_PORT"),
			User:           v.GetString("SMTP_USER"),
			Password:       v.GetString("SMTP_PASSWORD"),
			From:           v.GetString("SMTP_FROM"),
			TimeoutSeconds: v.GetInt("SMTP_TIMEOUT_SECONDS"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   v.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   v.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders:   v.GetStringSlice("CORS_ALLOWED_HEADERS"),
			ExposedHeaders:   v.GetStringSlice("CORS_EXPOSED_HEADERS"),
			AllowCredentials: v.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           v.GetInt("CORS_MAX_AGE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		MQTT: MQTTConfig{
			Broker:      v.GetString("MQTT_BROKER"),
			ClientID:    v.GetString("MQTT_CLIENT_ID"),
			Username:    v.GetString("MQTT_USERNAME"),
			Password:    v.GetString("MQTT_PASSWORD"),
			TopicPrefix: v.GetString("MQTT_TOPIC_PREFIX"),
		},
		Reset: ResetConfig{
			OTPTTLMinutes:  v.GetInt("OTP_TTL_MINUTES"),
			Link:           v.GetString("RESET_PASSWORD_LINK"),
			LockTTLSeconds: v.GetInt("LOCK_TTL_SECONDS"),
		},
	}
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Database.Host == "" || c.Database.DBName == "" {
		return errors.New("database configuration is missing: set DB_HOST and DB_NAME")
	}
	if c.Reset.OTPTTLMinutes <= 0 {
		return errors.New("OTP_TTL_MINUTES must be positive")
	}
	if c.Reset.LockTTLSeconds <= 0 {
		return errors.New("LOCK_TTL_SECONDS must be positive")
	}
	if c.SMTP.TimeoutSeconds <= 0 {
		return errors.New("SMTP_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *SMTPConfig) SendTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *ResetConfig) OTPTTL() time.Duration {
	return time.Duration(c.OTPTTLMinutes) * time.Minute
}

func (c *ResetConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		DisableReqLogs            bool
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	StorageConfig struct {
		Root            string
		BaseURL         string
		SignedURLExpiry time.Duration
		MaxUploadSize   int64 // bytes
	}

	Config struct {
		Env                       string // DEV (local; default), TEST, QA, PROD
		Build                     string
		AppName                   string
		Debug                     bool
		TestMode                  bool
		SecretKey                 string
		FrontendBaseURL           string
		RollbarToken              string
		SendgridApiKey            string
		PasswordResetTimeoutDelta time.Duration
		Server                    ServerConfig
		Database                  DatabaseConfig
		Storage                   StorageConfig

		defaultFromEmail string
	}
)

func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, dc.Port)
}

// DefaultFromEmail parses the configured sender address; it falls back to a bare address
// when the value is not RFC 5322 compliant.
func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
	}
	return *addr
}

// NewConfig loads the configuration from `config/.env.<env>` (if present) and from the
// environment, using ENV as the variable prefix (e.g. DEV_SECRET_KEY).
func NewConfig() *Config {
	conf := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("build", "develop")
	conf.SetDefault("debug", env == "DEV" || env == "TEST")
	conf.SetDefault("test_mode", env == "TEST")
	conf.SetDefault("app_name", "TutorCraft")
	conf.SetDefault("secret_key", "x!m2p7-tutorcraft-dev-only-3k$9q@c0=v")
	conf.SetDefault("frontend_base_url", "http://localhost:3000")
	conf.SetDefault("default_from_email", "TutorCraft <noreply@localhost>")
	conf.SetDefault("rollbar_token", "")
	conf.SetDefault("sendgrid_api_key", "")
	conf.SetDefault("password_reset_timeout_delta", 3*24*time.Hour)

	conf.SetDefault("server_host", "localhost")
	conf.SetDefault("server_address", ":8000")
	conf.SetDefault("server_debug_host", ":4000")
	conf.SetDefault("server_disable_req_logs", false)
	conf.SetDefault("server_shutdown_timeout", 5*time.Second)
	conf.SetDefault("jwt_expiration_delta", 7*24*time.Hour)
	conf.SetDefault("jwt_refresh_expiration_delta", 4*time.Hour)

	conf.SetDefault("database_engine", "postgres")
	conf.SetDefault("database_host", "localhost")
	conf.SetDefault("database_port", "5432")
	conf.SetDefault("database_name", "tutorcraft")
	conf.SetDefault("database_user", "tutorcraft")
	conf.SetDefault("database_password", "")
	conf.SetDefault("database_admin_user", "postgres")
	conf.SetDefault("database_admin_password", "")
	conf.SetDefault("database_disable_tls", env == "DEV" || env == "TEST")

	conf.SetDefault("storage_root", filepath.Join(os.TempDir(), "tutorcraft"))
	conf.SetDefault("storage_base_url", "http://localhost:8000")
	conf.SetDefault("storage_signed_url_expiry", time.Hour)
	conf.SetDefault("storage_max_upload_size", int64(25<<20))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	conf.SetEnvPrefix(env)
	conf.AutomaticEnv()

	return &Config{
		Env:                       env,
		Build:                     conf.GetString("build"),
		AppName:                   conf.GetString("app_name"),
		Debug:                     conf.GetBool("debug"),
		TestMode:                  conf.GetBool("test_mode"),
		SecretKey:                 conf.GetString("secret_key"),
		FrontendBaseURL:           strings.TrimSuffix(conf.GetString("frontend_base_url"), "/"),
		RollbarToken:              conf.GetString("rollbar_token"),
		SendgridApiKey:            conf.GetString("sendgrid_api_key"),
		PasswordResetTimeoutDelta: conf.GetDuration("password_reset_timeout_delta"),
		defaultFromEmail:          conf.GetString("default_from_email"),
		Server: ServerConfig{
			Host:                      conf.GetString("server_host"),
			Address:                   conf.GetString("server_address"),
			DebugHost:                 conf.GetString("server_debug_host"),
			DisableReqLogs:            conf.GetBool("server_disable_req_logs"),
			ShutdownTimeout:           conf.GetDuration("server_shutdown_timeout"),
			JWTExpirationDelta:        conf.GetDuration("jwt_expiration_delta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwt_refresh_expiration_delta"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("database_engine"),
			Host:          conf.GetString("database_host"),
			Port:          conf.GetString("database_port"),
			Name:          conf.GetString("database_name"),
			User:          conf.GetString("database_user"),
			Password:      conf.GetString("database_password"),
			AdminUser:     conf.GetString("database_admin_user"),
			AdminPassword: conf.GetString("database_admin_password"),
			DisableTLS:    conf.GetBool("database_disable_tls"),
		},
		Storage: StorageConfig{
			Root:            conf.GetString("storage_root"),
			BaseURL:         strings.TrimSuffix(conf.GetString("storage_base_url"), "/"),
			SignedURLExpiry: conf.GetDuration("storage_signed_url_expiry"),
			MaxUploadSize:   conf.GetInt64("storage_max_upload_size"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests: no .env lookups, fixed secrets.
func NewTestConfig(storageRoot string) *Config {
	return &Config{
		Env:                       "TEST",
		Build:                     "test",
		AppName:                   "TutorCraft",
		Debug:                     false,
		TestMode:                  true,
		SecretKey:                 "secret",
		FrontendBaseURL:           "http://frontend.test",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		defaultFromEmail:          "TutorCraft <noreply@tutorcraft.test>",
		Server: ServerConfig{
			Host:                      "localhost",
			DisableReqLogs:            true,
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Storage: StorageConfig{
			Root:            storageRoot,
			BaseURL:         "http://files.test",
			SignedURLExpiry: time.Hour,
			MaxUploadSize:   1 << 20,
		},
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("%s (%s) env=%s debug=%t", c.AppName, c.Build, c.Env, c.Debug)
}

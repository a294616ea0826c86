package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Debug    bool
	TestMode bool
	Env      string // DEV (default) | TEST | QA | PROD
	Build    string
	AppName  string

	// SecretKey signs session tokens; rotating it invalidates all
	// outstanding tokens.
	SecretKey []byte

	// RootUsername/RootPassword bootstrap the default admin account.
	RootUsername string
	RootPassword string

	DefaultFromEmail mail.Address
	AdminEmail       mail.Address
	SendgridAPIKey   string
	RollbarToken     string

	Database struct {
		// Path to the SQLite database file.
		Path string
	}

	Server struct {
		Host               string
		Addr               string
		DebugAddr          string
		JWTExpirationDelta time.Duration
		ShutdownTimeout    time.Duration
	}
}

// NewConfig loads the process-wide configuration once at startup: defaults,
// then an optional config/.env.<env> file, then environment variables.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Darasa")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "8gz&2b)y#4q!0t=vma^7jxr(5nfc+1wd*ule9s%kh6po3i_$")
	v.SetDefault("rootUsername", "root")
	v.SetDefault("rootPassword", "")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("adminEmail", "admin@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("databasePath", "darasa.sqlite")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddr", ":8000")
	v.SetDefault("serverDebugAddr", ":4000")
	v.SetDefault("jwtExpirationDelta", time.Hour)
	v.SetDefault("shutdownTimeout", 5*time.Second)

	env := os.Getenv("ENV")
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Debug:        v.GetBool("debug"),
		TestMode:     env == "TEST",
		Env:          env,
		Build:        v.GetString("build"),
		AppName:      v.GetString("appName"),
		SecretKey:    []byte(v.GetString("secretKey")),
		RootUsername: v.GetString("rootUsername"),
		RootPassword: v.GetString("rootPassword"),
		DefaultFromEmail: mail.Address{
			Name:    v.GetString("appName"),
			Address: v.GetString("defaultFromEmail"),
		},
		AdminEmail:     mail.Address{Address: v.GetString("adminEmail")},
		SendgridAPIKey: v.GetString("sendgridApiKey"),
		RollbarToken:   v.GetString("rollbarToken"),
	}
	conf.Database.Path = v.GetString("databasePath")
	conf.Server.Host = v.GetString("serverHost")
	conf.Server.Addr = v.GetString("serverAddr")
	conf.Server.DebugAddr = v.GetString("serverDebugAddr")
	conf.Server.JWTExpirationDelta = v.GetDuration("jwtExpirationDelta")
	conf.Server.ShutdownTimeout = v.GetDuration("shutdownTimeout")
	return conf
}

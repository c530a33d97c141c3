package core

import (
	"log"
	"os"
	"net/mail"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage kinds for the persisted token slot.
const (
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

type (
	Config struct {
		Env          string
		Debug        bool
		TestMode     bool
		AppName      string
		Build        string
		LogLevel     string
		RollbarToken string

		API     APIConfig
		Storage StorageConfig
		DevAPI  DevAPIConfig
	}

	APIConfig struct {
		BaseURL     string
		LoginPath   string
		ProfilePath string
		MePath      string
		// RequestTimeout bounds the session's network calls; zero disables it.
		RequestTimeout time.Duration
	}

	StorageConfig struct {
		Kind          string
		TokenFile     string
		RedisAddr     string
		RedisPassword string
		RedisDB       int
		RedisKey      string
	}

	DevAPIConfig struct {
		Address              string
		Host                 string
		SecretKey            string
		JWTExpirationDelta   time.Duration
		OAuthRedirectURL     string
		// ResetPasswordURL is the client page reset links point at.
		ResetPasswordURL     string
		PasswordResetTimeout time.Duration
		DefaultFromEmail     mail.Address
		SendgridAPIKey       string
	}
)

// NewConfig loads the configuration for the current ENV (DEV by default).
// Values come from defaults, then config/.env.<env> (if any), then the environment.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "LMS")
	v.SetDefault("build", "develop")
	v.SetDefault("logLevel", "info")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("apiBaseURL", "http://localhost:8080/api")
	v.SetDefault("apiLoginPath", "/users/login")
	v.SetDefault("apiProfilePath", "/users/profile")
	v.SetDefault("apiMePath", "/users/me")
	v.SetDefault("apiRequestTimeout", 30*time.Second)

	v.SetDefault("storageKind", StorageFile)
	v.SetDefault("tokenFile", defaultTokenFile())
	v.SetDefault("redisAddr", "localhost:6379")
	v.SetDefault("redisPassword", "")
	v.SetDefault("redisDB", 0)
	v.SetDefault("redisKey", "lms:token")

	v.SetDefault("devApiAddress", ":8080")
	v.SetDefault("devApiHost", "localhost")
	v.SetDefault("secretKey", "u9#lq2$k0v!x7m@pz&4ne8r)w3c(t6yb")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("oauthRedirectURL", "http://localhost:5173/auth/google/callback")
	v.SetDefault("resetPasswordURL", "http://localhost:5173/auth/reset-password")
	v.SetDefault("passwordResetTimeout", 3*time.Hour)
	v.SetDefault("defaultFromEmail", "noreply@lms.local")
	v.SetDefault("sendgridApiKey", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:          env,
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		Build:        v.GetString("build"),
		LogLevel:     v.GetString("logLevel"),
		RollbarToken: v.GetString("rollbarToken"),
		API: APIConfig{
			BaseURL:        strings.TrimRight(v.GetString("apiBaseURL"), "/"),
			LoginPath:      v.GetString("apiLoginPath"),
			ProfilePath:    v.GetString("apiProfilePath"),
			MePath:         v.GetString("apiMePath"),
			RequestTimeout: v.GetDuration("apiRequestTimeout"),
		},
		Storage: StorageConfig{
			Kind:          CleanString(v.GetString("storageKind"), true /* lower */),
			TokenFile:     v.GetString("tokenFile"),
			RedisAddr:     v.GetString("redisAddr"),
			RedisPassword: v.GetString("redisPassword"),
			RedisDB:       v.GetInt("redisDB"),
			RedisKey:      v.GetString("redisKey"),
		},
		DevAPI: DevAPIConfig{
			Address:              v.GetString("devApiAddress"),
			Host:                 v.GetString("devApiHost"),
			SecretKey:            v.GetString("secretKey"),
			JWTExpirationDelta:   v.GetDuration("jwtExpirationDelta"),
			OAuthRedirectURL:     v.GetString("oauthRedirectURL"),
			ResetPasswordURL:     v.GetString("resetPasswordURL"),
			PasswordResetTimeout: v.GetDuration("passwordResetTimeout"),
			DefaultFromEmail: mail.Address{
				Name:    v.GetString("appName"),
				Address: v.GetString("defaultFromEmail"),
			},
			SendgridAPIKey:       v.GetString("sendgridApiKey"),
		},
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "lms", "token")
}

package configuration

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"coursemint/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	Database    Database    `json:"database"`
	App         App         `json:"app"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	RedisClient RedisClient `json:"redisClient"`
	Logger      Logger      `json:"logger"`
	OpenAI      OpenAI      `json:"openai"`
	Commerce    Commerce    `json:"commerce"`
	Unsplash    Unsplash    `json:"unsplash"`
	Ingest      Ingest      `json:"ingest"`
	Entitlement Entitlement `json:"entitlement"`
}

type App struct {
	Port          int    `json:"port"`
	SecretKey     string `json:"secretKey"`
	PublicBaseURL string `json:"publicBaseURL"`
	TLSEnabled    bool   `json:"tlsEnabled"`
	TLSCertFile   string `json:"tlsCertFile"`
	TLSKeyFile    string `json:"tlsKeyFile"`
	// PublicRatePerMinute throttles the anonymous checkout/access endpoints per client IP.
	PublicRatePerMinute int `json:"publicRatePerMinute"`
}

type Database struct {
	Psql  Db `json:"psql"`
	Mongo Db `json:"mongo"`
	Mssql Db `json:"mssql"`
}

type Db struct {
	Name     string `json:"string"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
}

type RedisClient struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Password     string `json:"password"`
	DatabaseName string `json:"databaseName"`
	Username     string `json:"username"`
}

type Logger struct {
	Format string `json:"format"`
	Level  string `json:"level"`
}

// OpenAI configures the generative model endpoint (any OpenAI-compatible API).
type OpenAI struct {
	BaseURL        string `json:"baseURL"`
	APIKey         string `json:"apiKey"`
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

// Commerce holds the commerce provider API and OAuth client credentials.
type Commerce struct {
	APIBaseURL   string   `json:"apiBaseURL"`
	AuthURL      string   `json:"authURL"`
	TokenURL     string   `json:"tokenURL"`
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret"`
	RedirectURI  string   `json:"redirectURI"`
	Scopes       []string `json:"scopes"`
}

type Unsplash struct {
	BaseURL   string `json:"baseURL"`
	AccessKey string `json:"accessKey"`
}

type Ingest struct {
	MaxBytes       int64 `json:"maxBytes"`
	TimeoutSeconds int   `json:"timeoutSeconds"`
}

type Entitlement struct {
	MaxFailedAttempts int64  `json:"maxFailedAttempts"`
	FailWindowSeconds int    `json:"failWindowSeconds"`
	EventsBroker      string `json:"eventsBroker"` // pubsub | servicebus | ""
}

var C Config

func init() {
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initProviders(&C)
	initLimits(&C)
	// Prefer https redirect URIs locally when TLS enabled
	if C.App.TLSEnabled {
		if C.Commerce.RedirectURI != "" && !hasHTTPS(C.Commerce.RedirectURI) {
			C.Commerce.RedirectURI = toHTTPSCallback(C.Commerce.RedirectURI)
		}
	}
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
	logger.SetLevel(C.Logger.Level)
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	psql := &C.Database.Psql
	psql.Name = getConfigValue(psql.Name, "DB_NAME", "coursemint")
	psql.Host = getConfigValue(psql.Host, "DB_HOST", "localhost")
	psql.Port = getConfigValue(psql.Port, "DB_PORT", "5432")
	psql.User = getConfigValue(psql.User, "DB_USER", "postgres")
	psql.Password = getConfigValue(psql.Password, "DB_PASSWORD", "")
	psql.SSLMode = getConfigValue(psql.SSLMode, "DB_SSLMODE", "disable")

	// Optional MSSQL config via environment variables (for Azure SQL in production)
	mssql := &C.Database.Mssql
	mssql.Name = getConfigValue(mssql.Name, "MSSQL_DB_NAME", "coursemint")
	mssql.Host = getConfigValue(mssql.Host, "MSSQL_HOST", "localhost")
	mssql.Port = getConfigValue(mssql.Port, "MSSQL_PORT", "1433")
	mssql.User = getConfigValue(mssql.User, "MSSQL_USER", "sa")
	mssql.Password = getConfigValue(mssql.Password, "MSSQL_PASSWORD", "")

	mongo := &C.Database.Mongo
	mongo.Host = getConfigValue(mongo.Host, "MONGO_HOST", "")
	mongo.Port = getConfigValue(mongo.Port, "MONGO_PORT", "27017")
	mongo.User = getConfigValue(mongo.User, "MONGO_USER", "")
	mongo.Password = getConfigValue(mongo.Password, "MONGO_PASSWORD", "")
	mongo.Name = getConfigValue(mongo.Name, "MONGO_DB_NAME", "coursemint")

	C.RedisClient.Host = getConfigValue(C.RedisClient.Host, "REDIS_HOST", "")
	C.RedisClient.Port = getConfigValue(C.RedisClient.Port, "REDIS_PORT", "6379")
	C.RedisClient.Password = getConfigValue(C.RedisClient.Password, "REDIS_PASSWORD", "")
}

func initApp(C *Config) {
	// Prefer SECRET_KEY from environment for JWT verification; overrides config file when provided
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 10001
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		switch v {
		case "1", "true", "TRUE", "True":
			C.App.TLSEnabled = true
		case "0", "false", "FALSE", "False":
			C.App.TLSEnabled = false
		}
	}
	if C.App.TLSCertFile == "" {
		C.App.TLSCertFile = os.Getenv("TLS_CERT_FILE")
	}
	if C.App.TLSKeyFile == "" {
		C.App.TLSKeyFile = os.Getenv("TLS_KEY_FILE")
	}
	scheme := "http"
	if C.App.TLSEnabled {
		scheme = "https"
	}
	C.App.PublicBaseURL = strings.TrimRight(
		getConfigValue(C.App.PublicBaseURL, "PUBLIC_BASE_URL", fmt.Sprintf("%s://localhost:%d/c", scheme, C.App.Port)), "/")
	if C.App.PublicRatePerMinute == 0 {
		C.App.PublicRatePerMinute = 120
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; JWT authentication will fail. Provide SECRET_KEY via environment.")
	}
}

func initProviders(C *Config) {
	C.OpenAI.BaseURL = getConfigValue(C.OpenAI.BaseURL, "OPENAI_BASE_URL", "https://api.openai.com/v1")
	C.OpenAI.APIKey = getConfigValue(C.OpenAI.APIKey, "OPENAI_API_KEY", "")
	C.OpenAI.Model = getConfigValue(C.OpenAI.Model, "OPENAI_MODEL", "gpt-4o-mini")
	if C.OpenAI.TimeoutSeconds == 0 {
		C.OpenAI.TimeoutSeconds = 60
	}

	port := C.App.Port
	scheme := "http"
	if C.App.TLSEnabled {
		scheme = "https"
	}
	defaultRedirect := fmt.Sprintf("%s://localhost:%d/auth/commerce/callback", scheme, port)
	C.Commerce.APIBaseURL = getConfigValue(C.Commerce.APIBaseURL, "COMMERCE_API_BASE_URL", "")
	C.Commerce.AuthURL = getConfigValue(C.Commerce.AuthURL, "COMMERCE_AUTH_URL", "")
	C.Commerce.TokenURL = getConfigValue(C.Commerce.TokenURL, "COMMERCE_TOKEN_URL", "")
	C.Commerce.ClientID = getConfigValue(C.Commerce.ClientID, "COMMERCE_CLIENT_ID", "")
	C.Commerce.ClientSecret = getConfigValue(C.Commerce.ClientSecret, "COMMERCE_CLIENT_SECRET", "")
	C.Commerce.RedirectURI = getConfigValue(C.Commerce.RedirectURI, "COMMERCE_REDIRECT_URL", defaultRedirect)

	C.Unsplash.BaseURL = getConfigValue(C.Unsplash.BaseURL, "UNSPLASH_BASE_URL", "https://api.unsplash.com")
	C.Unsplash.AccessKey = getConfigValue(C.Unsplash.AccessKey, "UNSPLASH_ACCESS_KEY", "")
}

func initLimits(C *Config) {
	if C.Ingest.MaxBytes == 0 {
		C.Ingest.MaxBytes = 10 << 20
	}
	if C.Ingest.TimeoutSeconds == 0 {
		C.Ingest.TimeoutSeconds = 20
	}
	if C.Entitlement.MaxFailedAttempts == 0 {
		C.Entitlement.MaxFailedAttempts = 10
	}
	if C.Entitlement.FailWindowSeconds == 0 {
		C.Entitlement.FailWindowSeconds = 15 * 60
	}
	C.Entitlement.EventsBroker = getConfigValue(C.Entitlement.EventsBroker, "EVENTS_BROKER", "")
}

// Enabled reports whether the commerce provider is configured at all.
func (c Commerce) Enabled() bool {
	return c.APIBaseURL != "" && c.TokenURL != "" && c.ClientID != ""
}

// getConfigValue gets value from environment first, then config, then default
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	// Otherwise use config value if set and not a placeholder
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}

// helpers to coerce local callback to https
func hasHTTPS(u string) bool { return strings.HasPrefix(u, "https://") }
func toHTTPSCallback(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		ExternalAPI struct {
			Port      string `mapstructure:"port"`
			CertFile  string `mapstructure:"certFile"`
			KeyFile   string `mapstructure:"keyFile"`
			EnableTLS bool   `mapstructure:"enableTLS"`
		} `mapstructure:"externalAPI"`
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Places    PlacesConfig    `mapstructure:"places"`
	Weather   WeatherConfig   `mapstructure:"weather"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Breaker   BreakerConfig   `mapstructure:"breaker"`
	Planner   PlannerConfig   `mapstructure:"planner"`
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

type LLMConfig struct {
	APIKey      string        `mapstructure:"apiKey"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Retries     uint64        `mapstructure:"retries"`
}

type PlacesConfig struct {
	APIKey            string        `mapstructure:"apiKey"`
	BaseURL           string        `mapstructure:"baseURL"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requestsPerSecond"`
	Burst             int           `mapstructure:"burst"`
	MaxAlternatives   int           `mapstructure:"maxAlternatives"`
	PageSize          int           `mapstructure:"pageSize"`
}

type WeatherConfig struct {
	APIKey            string        `mapstructure:"apiKey"`
	BaseURL           string        `mapstructure:"baseURL"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requestsPerSecond"`
}

// CacheConfig selects the venue cache backend: "memory" (TTL only) or "ristretto" (TTL + cost bound).
type CacheConfig struct {
	Backend         string        `mapstructure:"backend"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanupInterval"`
	MaxCost         int64         `mapstructure:"maxCost"`
}

type BreakerConfig struct {
	FailureThreshold uint32        `mapstructure:"failureThreshold"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
	HalfOpenRequests uint32        `mapstructure:"halfOpenRequests"`
}

type PlannerConfig struct {
	DefaultCity             string `mapstructure:"defaultCity"`
	DefaultStartTime        string `mapstructure:"defaultStartTime"`
	FlexibleDurationMinutes int    `mapstructure:"flexibleDurationMinutes"`
	RouteOptimization       bool   `mapstructure:"routeOptimization"`
}

type RateLimitConfig struct {
	PlanRequests int           `mapstructure:"planRequests"`
	Window       time.Duration `mapstructure:"window"`
}

// InitConfig reads config.yml from disk, falling back to the embedded copy.
// Secrets are bound to environment variables and never read from the file.
// Each call returns a fresh value; callers that want to reload simply call it again.
func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	bindSecrets(v)

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

func bindSecrets(v *viper.Viper) {
	_ = v.BindEnv("llm.apiKey", "GOOGLE_GEMINI_API_KEY")
	_ = v.BindEnv("places.apiKey", "GOOGLE_PLACES_API_KEY")
	_ = v.BindEnv("weather.apiKey", "OPENWEATHER_API_KEY")
	_ = v.BindEnv("repositories.postgres.password", "POSTGRES_PASSWORD")
	_ = v.BindEnv("repositories.postgres.host", "POSTGRES_HOST")
}

package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type TLSListener struct {
	Port      string `mapstructure:"port"`
	CertFile  string `mapstructure:"certFile"`
	KeyFile   string `mapstructure:"keyFile"`
	EnableTLS bool   `mapstructure:"enableTLS"`
}

type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"maxAttempts"`
	InitialBackoff time.Duration `mapstructure:"initialBackoff"`
	MaxBackoff     time.Duration `mapstructure:"maxBackoff"`
	Multiplier     float64       `mapstructure:"multiplier"`
}

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		Prometheus TLSListener `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Enabled           bool   `mapstructure:"enabled"`
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
	LLM struct {
		// Provider is one of gemini, openai or simulated.
		Provider    string        `mapstructure:"provider"`
		Model       string        `mapstructure:"model"`
		Temperature float64       `mapstructure:"temperature"`
		CallTimeout time.Duration `mapstructure:"callTimeout"`
		Retry       RetryConfig   `mapstructure:"retry"`
	} `mapstructure:"llm"`
	Tools struct {
		Timeout       time.Duration `mapstructure:"timeout"`
		CacheTTL      time.Duration `mapstructure:"cacheTTL"`
		IncludeSchema bool          `mapstructure:"includeSchema"`
		Retry         RetryConfig   `mapstructure:"retry"`
	} `mapstructure:"tools"`
	Assistant struct {
		FallbackOrigin      string `mapstructure:"fallbackOrigin"`
		RequireBookingLinks bool   `mapstructure:"requireBookingLinks"`
		HistoryLimit        int    `mapstructure:"historyLimit"`
	} `mapstructure:"assistant"`
	Sessions struct {
		TTL     time.Duration `mapstructure:"ttl"`
		Cleanup time.Duration `mapstructure:"cleanup"`
	} `mapstructure:"sessions"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// TRAVEL_LLM_PROVIDER overrides llm.provider, and so on.
	v.SetEnvPrefix("TRAVEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DataDir    string           `mapstructure:"data_dir"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Transcript TranscriptConfig `mapstructure:"transcript"`
	Log        LogConfig        `mapstructure:"log"`
}

type LLMConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
}

type TranscriptConfig struct {
	Languages []string      `mapstructure:"languages"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Development bool `mapstructure:"development"`
}

// Load reads defaults, an optional .env file in the working directory,
// YTLEARN_* environment variables and <data_dir>/config.yaml, in that order
// of increasing precedence for everything but the environment.
func Load() (*Config, error) {
	return LoadDir("")
}

// LoadDir is Load with data_dir forced to dataDir when it is not empty.
func LoadDir(dataDir string) (*Config, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	defaultDataDir := filepath.Join(homeDir, ".ytlearn")

	v := viper.New()
	v.SetDefault("data_dir", defaultDataDir)
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-3.5-turbo")
	v.SetDefault("transcript.languages", []string{"en"})
	v.SetDefault("transcript.timeout", 30*time.Second)
	v.SetDefault("log.development", false)

	// Environment variable overrides
	v.SetEnvPrefix("YTLEARN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("data_dir", "YTLEARN_DATA_DIR")
	v.BindEnv("llm.provider", "YTLEARN_LLM_PROVIDER")
	v.BindEnv("llm.model", "YTLEARN_LLM_MODEL")
	v.BindEnv("llm.base_url", "YTLEARN_LLM_BASE_URL")
	v.BindEnv("llm.api_key", "YTLEARN_LLM_API_KEY")

	if dataDir != "" {
		v.Set("data_dir", dataDir)
	}

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(v.GetString("data_dir"))

	// Read config file if exists (ignore error if not found)
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// APIKey returns the summarization credential: llm.api_key when set,
// otherwise the provider's conventional environment variable.
func (c *Config) APIKey() string {
	if c.LLM.APIKey != "" {
		return c.LLM.APIKey
	}
	switch c.LLM.Provider {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openrouter":
		return os.Getenv("OPENROUTER_API_KEY")
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}

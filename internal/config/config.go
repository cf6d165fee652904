package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for PromptForge
type Config struct {
	Execution  LLMConfig        `json:"execution"`
	Judge      LLMConfig        `json:"judge"`
	Generation LLMConfig        `json:"generation"`
	Promotion  PromotionConfig  `json:"promotion"`
	Evaluation EvaluationConfig `json:"evaluation"`
	Database   DatabaseConfig   `json:"database"`
	Server     ServerConfig     `json:"server"`
}

// LLMConfig holds configuration for one OpenAI-compatible model endpoint
type LLMConfig struct {
	URL         string  `json:"url"`
	APIKey      string  `json:"api_key"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TimeoutSecs int     `json:"timeout_seconds"`
}

func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// PromotionConfig holds the explicit promotion-policy thresholds
type PromotionConfig struct {
	// ImprovementThreshold is the minimum overall-score delta over baseline
	ImprovementThreshold float64 `json:"improvement_threshold"`
	// MinFormatPassRate rejects candidates below this format pass rate
	MinFormatPassRate float64 `json:"min_format_pass_rate"`
	// RegressionGuardrail is the maximum tolerated per-dimension decrease
	RegressionGuardrail float64 `json:"regression_guardrail"`
	// PendingBand is how far below the threshold a delta may land and still
	// defer to manual review; 0 disables the pending outcome
	PendingBand float64 `json:"pending_band"`
	// MaxCandidates caps candidates generated per improvement run
	MaxCandidates int `json:"max_candidates"`
}

// EvaluationConfig bounds evaluation runs
type EvaluationConfig struct {
	Parallelism      int `json:"parallelism"`
	CacheTTLSecs     int `json:"cache_ttl_seconds"`
	CacheMaxSize     int `json:"cache_max_size"`
	ExecTimeoutSecs  int `json:"execute_timeout_seconds"`
	JudgeTimeoutSecs int `json:"judge_timeout_seconds"`
}

func (c EvaluationConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSecs) * time.Second
}

func (c EvaluationConfig) ExecTimeout() time.Duration {
	return time.Duration(c.ExecTimeoutSecs) * time.Second
}

func (c EvaluationConfig) JudgeTimeout() time.Duration {
	return time.Duration(c.JudgeTimeoutSecs) * time.Second
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	PostgresURL string `json:"postgres_url"`
}

// ServerConfig holds API server configuration
type ServerConfig struct {
	Host        string   `json:"host"`
	Port        int      `json:"port"`
	CORSOrigins []string `json:"cors_origins"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Execution: LLMConfig{
			URL:         "http://localhost:8000/v1",
			Model:       "gpt-4o-mini",
			MaxTokens:   2048,
			Temperature: 0.0,
			TimeoutSecs: 60,
		},
		Judge: LLMConfig{
			URL:         "http://localhost:8000/v1",
			Model:       "gpt-4o",
			MaxTokens:   1024,
			Temperature: 0.0,
			TimeoutSecs: 60,
		},
		Generation: LLMConfig{
			URL:         "http://localhost:8000/v1",
			Model:       "gpt-4o",
			MaxTokens:   4096,
			Temperature: 0.8,
			TimeoutSecs: 120,
		},
		Promotion: PromotionConfig{
			ImprovementThreshold: 0.05,
			MinFormatPassRate:    0.95,
			RegressionGuardrail:  0.02,
			PendingBand:          0.01,
			MaxCandidates:        3,
		},
		Evaluation: EvaluationConfig{
			Parallelism:      4,
			CacheTTLSecs:     3600,
			CacheMaxSize:     1000,
			ExecTimeoutSecs:  60,
			JudgeTimeoutSecs: 60,
		},
		Database: DatabaseConfig{
			PostgresURL: "",
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000"},
		},
	}
}

// envString loads a string environment variable into the target pointer if set
func envString(key string, target *string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

// envInt loads an integer environment variable into the target pointer if set and valid
func envInt(key string, target *int) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*target = i
		}
	}
}

// envFloat loads a float64 environment variable into the target pointer if set and valid
func envFloat(key string, target *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*target = f
		}
	}
}

// envStringSlice loads a comma-separated environment variable into a string slice
func envStringSlice(key string, target *[]string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			*target = result
		}
	}
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := getConfigPath()
	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to parse config file %s: %v\n", configPath, err)
		}
	}

	envString("PF_EXECUTION_URL", &cfg.Execution.URL)
	envString("PF_EXECUTION_API_KEY", &cfg.Execution.APIKey)
	envString("PF_EXECUTION_MODEL", &cfg.Execution.Model)
	envInt("PF_EXECUTION_MAX_TOKENS", &cfg.Execution.MaxTokens)
	envFloat("PF_EXECUTION_TEMPERATURE", &cfg.Execution.Temperature)
	envInt("PF_EXECUTION_TIMEOUT", &cfg.Execution.TimeoutSecs)

	envString("PF_JUDGE_URL", &cfg.Judge.URL)
	envString("PF_JUDGE_API_KEY", &cfg.Judge.APIKey)
	envString("PF_JUDGE_MODEL", &cfg.Judge.Model)
	envInt("PF_JUDGE_MAX_TOKENS", &cfg.Judge.MaxTokens)
	envInt("PF_JUDGE_TIMEOUT", &cfg.Judge.TimeoutSecs)

	envString("PF_GENERATION_URL", &cfg.Generation.URL)
	envString("PF_GENERATION_API_KEY", &cfg.Generation.APIKey)
	envString("PF_GENERATION_MODEL", &cfg.Generation.Model)
	envInt("PF_GENERATION_MAX_TOKENS", &cfg.Generation.MaxTokens)
	envFloat("PF_GENERATION_TEMPERATURE", &cfg.Generation.Temperature)
	envInt("PF_GENERATION_TIMEOUT", &cfg.Generation.TimeoutSecs)

	envFloat("PF_IMPROVEMENT_THRESHOLD", &cfg.Promotion.ImprovementThreshold)
	envFloat("PF_MIN_FORMAT_PASS_RATE", &cfg.Promotion.MinFormatPassRate)
	envFloat("PF_REGRESSION_GUARDRAIL", &cfg.Promotion.RegressionGuardrail)
	envFloat("PF_PENDING_BAND", &cfg.Promotion.PendingBand)
	envInt("PF_MAX_CANDIDATES", &cfg.Promotion.MaxCandidates)

	envInt("PF_EVAL_PARALLELISM", &cfg.Evaluation.Parallelism)
	envInt("PF_EVAL_CACHE_TTL", &cfg.Evaluation.CacheTTLSecs)
	envInt("PF_EVAL_CACHE_MAX_SIZE", &cfg.Evaluation.CacheMaxSize)
	envInt("PF_EVAL_EXECUTE_TIMEOUT", &cfg.Evaluation.ExecTimeoutSecs)
	envInt("PF_EVAL_JUDGE_TIMEOUT", &cfg.Evaluation.JudgeTimeoutSecs)

	envString("PF_POSTGRES_URL", &cfg.Database.PostgresURL)

	envString("PF_SERVER_HOST", &cfg.Server.Host)
	envInt("PF_SERVER_PORT", &cfg.Server.Port)
	envStringSlice("PF_CORS_ORIGINS", &cfg.Server.CORSOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// isValidURL validates that a URL has proper format
func isValidURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// Validate checks that the configuration has valid values
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server port must be between 1 and 65535")
	}

	for name, llm := range map[string]LLMConfig{
		"execution":  c.Execution,
		"judge":      c.Judge,
		"generation": c.Generation,
	} {
		if llm.URL == "" {
			errs = append(errs, name+" URL is required")
		} else if !isValidURL(llm.URL) {
			errs = append(errs, name+" URL must be a valid URL")
		}
		if llm.Temperature < 0 || llm.Temperature > 2 {
			errs = append(errs, name+" temperature must be between 0 and 2")
		}
		if llm.MaxTokens < 1 {
			errs = append(errs, name+" max_tokens must be positive")
		}
	}

	if c.Promotion.ImprovementThreshold < 0 || c.Promotion.ImprovementThreshold > 1 {
		errs = append(errs, "improvement threshold must be between 0 and 1")
	}
	if c.Promotion.MinFormatPassRate < 0 || c.Promotion.MinFormatPassRate > 1 {
		errs = append(errs, "minimum format pass rate must be between 0 and 1")
	}
	if c.Promotion.RegressionGuardrail < 0 || c.Promotion.RegressionGuardrail > 1 {
		errs = append(errs, "regression guardrail must be between 0 and 1")
	}
	if c.Promotion.PendingBand < 0 || c.Promotion.PendingBand > c.Promotion.ImprovementThreshold {
		errs = append(errs, "pending band must be between 0 and the improvement threshold")
	}
	if c.Promotion.MaxCandidates < 1 {
		errs = append(errs, "max candidates must be at least 1")
	}

	if c.Evaluation.Parallelism < 1 {
		errs = append(errs, "evaluation parallelism must be at least 1")
	}

	if c.Database.PostgresURL != "" && !isValidURL(c.Database.PostgresURL) {
		errs = append(errs, "PostgreSQL URL must be a valid URL")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// getConfigPath returns the path to the config file
func getConfigPath() string {
	if path := os.Getenv("PF_CONFIG"); path != "" {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}

	configDir := filepath.Join(homeDir, ".config", "promptforge")
	configPath := filepath.Join(configDir, "config.json")
	if _, err := os.Stat(configPath); err == nil {
		return configPath
	}

	altPath := filepath.Join(homeDir, ".promptforge", "config.json")
	if _, err := os.Stat(altPath); err == nil {
		return altPath
	}

	return configPath
}

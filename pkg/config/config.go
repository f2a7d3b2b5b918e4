// Package config loads application settings from a YAML file with
// environment-variable overrides, falling back to built-in defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PoolConfig holds browser session pool settings.
type PoolConfig struct {
	MaxSessions    int
	SessionTimeout time.Duration
	SweepInterval  time.Duration
}

// AgentConfig holds automation agent settings.
type AgentConfig struct {
	MaxSteps      int
	ActionTimeout time.Duration
}

// LLMConfig holds model provider settings.
type LLMConfig struct {
	Provider string
	Model    string
	BaseURL  string
}

// RunConfig holds suite execution settings.
type RunConfig struct {
	Headless       bool
	InterTestPause time.Duration
	ScreenshotDir  string
	ReportDir      string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// Config is the full application configuration.
type Config struct {
	Server ServerConfig
	Pool   PoolConfig
	Agent  AgentConfig
	LLM    LLMConfig
	Run    RunConfig
	Log    LogConfig
}

// Load reads configuration from the given file (or ./config.yaml when empty)
// and applies environment overrides. A missing file is not an error; the
// defaults carry a working local setup.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("verity")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "600s")

	v.SetDefault("pool.max_sessions", 5)
	v.SetDefault("pool.session_timeout", "300s")
	v.SetDefault("pool.sweep_interval", "60s")

	v.SetDefault("agent.max_steps", 25)
	v.SetDefault("agent.action_timeout", "10s")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "")

	v.SetDefault("run.headless", true)
	v.SetDefault("run.inter_test_pause", "2s")
	v.SetDefault("run.screenshot_dir", "./screenshots")
	v.SetDefault("run.report_dir", "./reports")

	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		// An implicit lookup that finds nothing falls back to defaults;
		// an explicit path that cannot be read is a caller mistake.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config

	cfg.Server.Host = v.GetString("server.host")
	cfg.Server.Port = v.GetInt("server.port")
	cfg.Server.ReadTimeout = v.GetDuration("server.read_timeout")
	cfg.Server.WriteTimeout = v.GetDuration("server.write_timeout")

	cfg.Pool.MaxSessions = v.GetInt("pool.max_sessions")
	cfg.Pool.SessionTimeout = v.GetDuration("pool.session_timeout")
	cfg.Pool.SweepInterval = v.GetDuration("pool.sweep_interval")

	cfg.Agent.MaxSteps = v.GetInt("agent.max_steps")
	cfg.Agent.ActionTimeout = v.GetDuration("agent.action_timeout")

	cfg.LLM.Provider = v.GetString("llm.provider")
	cfg.LLM.Model = v.GetString("llm.model")
	cfg.LLM.BaseURL = v.GetString("llm.base_url")

	cfg.Run.Headless = v.GetBool("run.headless")
	cfg.Run.InterTestPause = v.GetDuration("run.inter_test_pause")
	cfg.Run.ScreenshotDir = v.GetString("run.screenshot_dir")
	cfg.Run.ReportDir = v.GetString("run.report_dir")

	cfg.Log.Level = v.GetString("log.level")

	return &cfg, nil
}

// Package config loads tunables for context resolution and the knowledge
// store optimization layer. Configuration objects are constructed at process
// start and passed by reference; nothing here is lazily materialized.
package config

import (
	"github.com/spf13/viper"
)

// ResolutionConfig holds the context-resolution tunables.
type ResolutionConfig struct {
	// Content sizing
	TargetWords  int     `mapstructure:"target_words"`
	CharsPerWord int     `mapstructure:"chars_per_word"`
	SummarySlack float64 `mapstructure:"summary_slack"` // stored-summary reuse factor

	// Knowledge store optimization layer
	OptimizationsEnabled bool `mapstructure:"optimizations_enabled"`
	CacheCapacity        int  `mapstructure:"cache_capacity"`
	CacheTTLMillis       int  `mapstructure:"cache_ttl_ms"`
	WriteBufferSize      int  `mapstructure:"write_buffer_size"`

	// Context-build cache
	ContextCacheCapacity  int `mapstructure:"context_cache_capacity"`
	ContextCacheTTLMillis int `mapstructure:"context_cache_ttl_ms"`
}

// LLMConfig selects the summarizer's chat model.
type LLMConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
}

// DefaultResolutionConfig returns the default resolution configuration.
func DefaultResolutionConfig() ResolutionConfig {
	return ResolutionConfig{
		TargetWords:  20000,
		CharsPerWord: 7,
		SummarySlack: 1.2,

		OptimizationsEnabled: true,
		CacheCapacity:        256,
		CacheTTLMillis:       2000,
		WriteBufferSize:      10,

		ContextCacheCapacity:  64,
		ContextCacheTTLMillis: 5000,
	}
}

// LoadResolutionConfig loads resolution configuration from Viper with defaults.
func LoadResolutionConfig() ResolutionConfig {
	defaults := DefaultResolutionConfig()

	return ResolutionConfig{
		TargetWords:  getIntWithDefault("resolution.target_words", defaults.TargetWords),
		CharsPerWord: getIntWithDefault("resolution.chars_per_word", defaults.CharsPerWord),
		SummarySlack: getFloat64WithDefault("resolution.summary_slack", defaults.SummarySlack),

		OptimizationsEnabled: getBoolWithDefault("store.optimizations_enabled", defaults.OptimizationsEnabled),
		CacheCapacity:        getIntWithDefault("store.cache_capacity", defaults.CacheCapacity),
		CacheTTLMillis:       getIntWithDefault("store.cache_ttl_ms", defaults.CacheTTLMillis),
		WriteBufferSize:      getIntWithDefault("store.write_buffer_size", defaults.WriteBufferSize),

		ContextCacheCapacity:  getIntWithDefault("resolution.context_cache_capacity", defaults.ContextCacheCapacity),
		ContextCacheTTLMillis: getIntWithDefault("resolution.context_cache_ttl_ms", defaults.ContextCacheTTLMillis),
	}
}

// LoadLLMConfig loads the summarizer model selection from Viper.
func LoadLLMConfig() LLMConfig {
	return LLMConfig{
		Provider: getStringWithDefault("llm.provider", ""),
		Model:    getStringWithDefault("llm.model", ""),
		APIKey:   getStringWithDefault("llm.api_key", ""),
		BaseURL:  getStringWithDefault("llm.base_url", ""),
	}
}

// Helper functions for Viper with defaults

func getFloat64WithDefault(key string, defaultVal float64) float64 {
	if viper.IsSet(key) {
		return viper.GetFloat64(key)
	}
	return defaultVal
}

func getIntWithDefault(key string, defaultVal int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return defaultVal
}

func getBoolWithDefault(key string, defaultVal bool) bool {
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	return defaultVal
}

func getStringWithDefault(key string, defaultVal string) string {
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultVal
}

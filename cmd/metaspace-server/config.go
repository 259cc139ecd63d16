package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/daniacca/metaspace/internal/space"
)

// ServerConfig holds the server configuration
type ServerConfig struct {
	Addr       string
	ConfigFile string
	WebhookURL string
	LogLevel   string
}

// configResolver defines how to resolve a single configuration value
type configResolver struct {
	flagName    string
	envVarName  string
	defaultVal  string
	description string
	setter      func(*ServerConfig, string)
}

// loadServerConfig loads server configuration from CLI flags and environment variables.
// Uses a resolver pattern to make it easy to add new configuration options.
func loadServerConfig() ServerConfig {
	cfg := ServerConfig{}

	// Define all configuration resolvers
	// To add a new option, just add a new resolver here
	resolvers := []configResolver{
		{
			flagName:    "addr",
			envVarName:  "METASPACE_ADDR",
			defaultVal:  ":8080",
			description: "HTTP listen address (e.g. :8080, 0.0.0.0:8080)",
			setter:      func(c *ServerConfig, v string) { c.Addr = v },
		},
		{
			flagName:    "config-file",
			envVarName:  "METASPACE_CONFIG_FILE",
			defaultVal:  "",
			description: "optional path to a JSON space config file to load at startup",
			setter:      func(c *ServerConfig, v string) { c.ConfigFile = v },
		},
		{
			flagName:    "webhook-url",
			envVarName:  "METASPACE_WEBHOOK_URL",
			defaultVal:  "",
			description: "optional webhook URL notified on every emitted message",
			setter:      func(c *ServerConfig, v string) { c.WebhookURL = v },
		},
		{
			flagName:    "log-level",
			envVarName:  "METASPACE_LOG_LEVEL",
			defaultVal:  "info",
			description: "Log level: debug, info, warn, error",
			setter:      func(c *ServerConfig, v string) { c.LogLevel = v },
		},
	}

	// Register string flags first
	flagVars := make(map[string]*string)
	for _, resolver := range resolvers {
		flagVars[resolver.flagName] = flag.String(resolver.flagName, "", resolver.description)
	}

	// Parse flags once
	flag.Parse()

	// Resolve values for each resolver
	for _, resolver := range resolvers {
		var value string
		if *flagVars[resolver.flagName] != "" {
			value = *flagVars[resolver.flagName]
		} else if envValue := os.Getenv(resolver.envVarName); envValue != "" {
			value = envValue
		} else {
			value = resolver.defaultVal
		}
		resolver.setter(&cfg, value)
	}

	return cfg
}

// loadInitialSpaceConfig loads a space configuration from a JSON file.
func loadInitialSpaceConfig(path string) (space.SpaceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return space.SpaceConfig{}, err
	}

	var cfg space.SpaceConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return space.SpaceConfig{}, err
	}

	if err := space.ValidateSpaceConfig(cfg); err != nil {
		return space.SpaceConfig{}, err
	}

	return cfg, nil
}

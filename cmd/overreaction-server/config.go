package main

import (
	"flag"
	"os"

	"github.com/daniacca/overreaction/internal/config"
	"github.com/daniacca/overreaction/internal/deck"
	"github.com/daniacca/overreaction/internal/kinetics"
)

// ServerConfig holds the server configuration
type ServerConfig struct {
	Addr       string
	ConfigFile string
	DeckFile   string
	MatchID    string
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
// Precedence is flag, then environment, then default.
func loadServerConfig(fs *flag.FlagSet, args []string) (ServerConfig, error) {
	cfg := ServerConfig{}

	resolvers := []configResolver{
		{
			flagName:    "addr",
			envVarName:  "OVERREACTION_ADDR",
			defaultVal:  ":8080",
			description: "HTTP listen address (e.g. :8080, 0.0.0.0:8080)",
			setter:      func(c *ServerConfig, v string) { c.Addr = v },
		},
		{
			flagName:    "config",
			envVarName:  "OVERREACTION_CONFIG",
			defaultVal:  "",
			description: "optional YAML match config merged over the built-in defaults",
			setter:      func(c *ServerConfig, v string) { c.ConfigFile = v },
		},
		{
			flagName:    "deck",
			envVarName:  "OVERREACTION_DECK",
			defaultVal:  "",
			description: "optional deck CSV file; each match gets its own shuffled copy",
			setter:      func(c *ServerConfig, v string) { c.DeckFile = v },
		},
		{
			flagName:    "match-id",
			envVarName:  "OVERREACTION_MATCH_ID",
			defaultVal:  "",
			description: "if set, a match with this ID is created at startup",
			setter:      func(c *ServerConfig, v string) { c.MatchID = v },
		},
		{
			flagName:    "log-level",
			envVarName:  "OVERREACTION_LOG_LEVEL",
			defaultVal:  "info",
			description: "Log level: debug, info, warn, error",
			setter:      func(c *ServerConfig, v string) { c.LogLevel = v },
		},
	}

	flagVars := make(map[string]*string)
	for _, resolver := range resolvers {
		flagVars[resolver.flagName] = fs.String(resolver.flagName, "", resolver.description)
	}

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

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

	return cfg, nil
}

// loadGameConfig loads the match config and, if configured, the deck cards.
// A deck with bad lines is rejected as a whole at startup.
func loadGameConfig(sc ServerConfig) (*config.Config, []deck.Card, error) {
	gameCfg, err := config.Load(sc.ConfigFile)
	if err != nil {
		return nil, nil, err
	}
	if sc.DeckFile == "" {
		return gameCfg, nil, nil
	}
	cards, err := deck.LoadFile(sc.DeckFile)
	if err != nil {
		return nil, nil, err
	}
	return gameCfg, cards, nil
}

// createInitialMatch creates the startup match when one is configured.
func createInitialMatch(srv *Server, id string) error {
	if id == "" {
		return nil
	}
	_, err := srv.createMatch(kinetics.MatchID(id))
	return err
}

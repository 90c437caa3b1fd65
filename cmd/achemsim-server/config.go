package main

import (
	"flag"
	"log"
	"os"
	"strconv"

	"github.com/daniacca/achemsim/internal/achem"
)

// ServerConfig holds the server configuration
type ServerConfig struct {
	Addr            string
	DefaultWorldID  string
	RulesFile       string
	TablesDir       string
	Width           float64
	Height          float64
	CellSize        float64
	TimeStep        float64
	Seed            *uint64
	FrameEveryTicks int
	LogLevel        string
}

// WorldConfig returns the geometry used for worlds created by the server.
func (c ServerConfig) WorldConfig() achem.WorldConfig {
	return achem.WorldConfig{
		Width:    c.Width,
		Height:   c.Height,
		CellSize: c.CellSize,
		TimeStep: c.TimeStep,
		Seed:     c.Seed,
	}
}

// configResolver defines how to resolve a single configuration value
type configResolver struct {
	flagName    string
	envVarName  string
	defaultVal  string
	description string
	setter      func(*ServerConfig, string)
}

// floatSetter parses v into the field selected by field, falling back to def.
func floatSetter(name string, def float64, field func(*ServerConfig) *float64) func(*ServerConfig, string) {
	return func(c *ServerConfig, v string) {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			log.Printf("Invalid value for %s: %s, using default %g", name, v, def)
			f = def
		}
		*field(c) = f
	}
}

// loadServerConfig loads server configuration from CLI flags and environment variables.
// Precedence is flag, then ACHEMSIM_* variable, then default.
func loadServerConfig() ServerConfig {
	cfg := ServerConfig{}

	resolvers := []configResolver{
		{
			flagName:    "addr",
			envVarName:  "ACHEMSIM_ADDR",
			defaultVal:  ":8080",
			description: "HTTP listen address (e.g. :8080, 0.0.0.0:8080)",
			setter:      func(c *ServerConfig, v string) { c.Addr = v },
		},
		{
			flagName:    "world-id",
			envVarName:  "ACHEMSIM_WORLD_ID",
			defaultVal:  "default",
			description: "ID of the world created from the startup rules",
			setter:      func(c *ServerConfig, v string) { c.DefaultWorldID = v },
		},
		{
			flagName:    "rules-file",
			envVarName:  "ACHEMSIM_RULES_FILE",
			defaultVal:  "",
			description: "optional path to a JSON rules file to load at startup",
			setter:      func(c *ServerConfig, v string) { c.RulesFile = v },
		},
		{
			flagName:    "tables-dir",
			envVarName:  "ACHEMSIM_TABLES_DIR",
			defaultVal:  "",
			description: "optional directory with particles.csv, reactions.csv and fissions.csv",
			setter:      func(c *ServerConfig, v string) { c.TablesDir = v },
		},
		{
			flagName:    "width",
			envVarName:  "ACHEMSIM_WIDTH",
			defaultVal:  "800",
			description: "world width",
			setter:      floatSetter("width", achem.DefaultWidth, func(c *ServerConfig) *float64 { return &c.Width }),
		},
		{
			flagName:    "height",
			envVarName:  "ACHEMSIM_HEIGHT",
			defaultVal:  "600",
			description: "world height",
			setter:      floatSetter("height", achem.DefaultHeight, func(c *ServerConfig) *float64 { return &c.Height }),
		},
		{
			flagName:    "cell-size",
			envVarName:  "ACHEMSIM_CELL_SIZE",
			defaultVal:  "40",
			description: "spatial grid cell size",
			setter:      floatSetter("cell-size", achem.DefaultCellSize, func(c *ServerConfig) *float64 { return &c.CellSize }),
		},
		{
			flagName:    "dt",
			envVarName:  "ACHEMSIM_DT",
			defaultVal:  "0.05",
			description: "simulation time step per tick",
			setter:      floatSetter("dt", achem.DefaultTimeStep, func(c *ServerConfig) *float64 { return &c.TimeStep }),
		},
		{
			flagName:    "seed",
			envVarName:  "ACHEMSIM_SEED",
			defaultVal:  "",
			description: "random seed for reproducible worlds; empty seeds from the clock",
			setter: func(c *ServerConfig, v string) {
				if v == "" {
					return
				}
				if s, err := strconv.ParseUint(v, 10, 64); err == nil {
					c.Seed = &s
				} else {
					log.Printf("Invalid value for seed: %s, seeding from the clock", v)
				}
			},
		},
		{
			flagName:    "frame-every-ticks",
			envVarName:  "ACHEMSIM_FRAME_EVERY_TICKS",
			defaultVal:  "10",
			description: "How often running worlds publish a frame event (in ticks); 0 disables frames",
			setter: func(c *ServerConfig, v string) {
				if val, err := strconv.Atoi(v); err == nil && val >= 0 {
					c.FrameEveryTicks = val
				} else {
					log.Printf("Invalid value for frame-every-ticks: %s, using default 10", v)
					c.FrameEveryTicks = 10
				}
			},
		},
		{
			flagName:    "log-level",
			envVarName:  "ACHEMSIM_LOG_LEVEL",
			defaultVal:  "info",
			description: "Log level: debug, info, warn, error",
			setter:      func(c *ServerConfig, v string) { c.LogLevel = v },
		},
	}

	flagVars := make(map[string]*string)
	for _, resolver := range resolvers {
		flagVars[resolver.flagName] = flag.String(resolver.flagName, "", resolver.description)
	}

	flag.Parse()

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

// loadInitialRules loads the startup rule set. A rules file wins over a
// tables directory; with neither configured it returns nil rules.
func loadInitialRules(cfg ServerConfig) (*achem.Rules, error) {
	switch {
	case cfg.RulesFile != "":
		return achem.LoadRulesFile(cfg.RulesFile)
	case cfg.TablesDir != "":
		return achem.LoadRulesDir(cfg.TablesDir)
	default:
		return nil, nil
	}
}

// applyInitialRules creates the world with the given ID, or swaps the rules
// of an existing one.
func applyInitialRules(srv *Server, rules *achem.Rules, worldID achem.WorldID) error {
	if _, exists := srv.manager.GetWorld(worldID); exists {
		return srv.manager.UpdateWorldRules(worldID, rules)
	}
	_, err := srv.createWorld(worldID, srv.worldCfg, rules)
	return err
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/ini.v1"
)

// Config holds crosplan configuration
type Config struct {
	Profile string

	SysrootPath   string // board sysroot holding the binpkg repository
	PackagesPath  string // binary package directory (defaults under sysroot)
	LogsPath      string
	HistoryDBPath string

	DeployRoot string // package installation root on the target
	MaxUpdates int    // update count above which planning asks for confirmation

	Debug     bool
	Force     bool
	YesAll    bool
	DisableUI bool
}

var globalConfig *Config

// GetConfig returns the global configuration
func GetConfig() *Config {
	return globalConfig
}

// SetConfig sets the global configuration
func SetConfig(cfg *Config) {
	globalConfig = cfg
}

// LoadConfig loads configuration from file
func LoadConfig(configDir, profile string) (*Config, error) {
	cfg := &Config{
		Profile:    profile,
		DeployRoot: "/",
		MaxUpdates: 10,
	}

	configFile := "/etc/crosplan/crosplan.ini"
	if configDir != "" {
		configFile = configDir + "/crosplan.ini"
	}

	if _, err := os.Stat(configFile); err == nil {
		iniFile, err := ini.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}

		// If no profile was chosen, the global section may name one.
		if cfg.Profile == "" || cfg.Profile == "default" {
			if key := iniFile.Section("Global").Key("profile_selected"); key.String() != "" {
				cfg.Profile = key.String()
			}
		}

		if cfg.Profile != "" {
			cfg.loadFromSection(iniFile.Section(cfg.Profile))
		}
		// Global section fills in anything the profile left unset.
		cfg.loadFromSection(iniFile.Section("Global"))
	}

	// Apply defaults for unset paths
	if cfg.SysrootPath == "" {
		cfg.SysrootPath = "/build/" + cfg.Profile
	}
	if cfg.PackagesPath == "" {
		cfg.PackagesPath = cfg.SysrootPath + "/packages"
	}
	if cfg.LogsPath == "" {
		cfg.LogsPath = "/var/log/crosplan"
	}
	if cfg.HistoryDBPath == "" {
		cfg.HistoryDBPath = "/var/lib/crosplan/plans.db"
	}

	return cfg, nil
}

// loadFromSection loads config values from an INI section
func (cfg *Config) loadFromSection(sec *ini.Section) {
	if sec == nil {
		return
	}

	if key := sec.Key("Directory_sysroot"); key.String() != "" && cfg.SysrootPath == "" {
		cfg.SysrootPath = key.String()
	}
	if key := sec.Key("Directory_packages"); key.String() != "" && cfg.PackagesPath == "" {
		cfg.PackagesPath = key.String()
	}
	if key := sec.Key("Directory_logs"); key.String() != "" && cfg.LogsPath == "" {
		cfg.LogsPath = key.String()
	}
	if key := sec.Key("History_database"); key.String() != "" && cfg.HistoryDBPath == "" {
		cfg.HistoryDBPath = key.String()
	}
	if key := sec.Key("Deploy_root"); key.String() != "" && cfg.DeployRoot == "/" {
		cfg.DeployRoot = key.String()
	}
	if key := sec.Key("Max_updates"); key.String() != "" {
		if v, err := key.Int(); err == nil && v > 0 {
			cfg.MaxUpdates = v
		}
	}
	if key := sec.Key("Debug"); key.String() != "" {
		cfg.Debug, _ = key.Bool()
	}
}

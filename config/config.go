package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rohow/mopad-client/globals"
)

const (
	defaultReconnectSecs = 10
	defaultClockTickSecs = 60
)

// Config is the global configuration object which is filled via the
// configuration file, environment (MOPAD_ prefix) and command-line flags.
type Config struct {
	// ServerURL is the http(s) base of the MOPAD server; the websocket
	// endpoint and the auxiliary resources are derived from it.
	ServerURL string `mapstructure:"server_url"`
	// ReconnectSecs is the fixed retry interval while disconnected and
	// visible.
	ReconnectSecs int `mapstructure:"reconnect_secs"`
	// ClockTickSecs is the interval of the process-wide time source.
	ClockTickSecs int `mapstructure:"clock_tick_secs"`
	// RefreshCron optionally re-fetches teams/locations on a cron spec.
	RefreshCron string `mapstructure:"refresh_cron"`

	PersistenceConfig PersistenceConfig `mapstructure:"persistence"`
	SchedulerConfig   SchedulerConfig   `mapstructure:"scheduler"`
	LogLevel          string            `mapstructure:"log_level"`
}

// PersistenceConfig selects the local state backend holding the relogin
// token and the snapshot cache. Supported types: buntdb, sqlite, postgres.
type PersistenceConfig struct {
	Type string `mapstructure:"type"`
	DSN  string `mapstructure:"dsn"`
}

// SchedulerConfig is the timeline geometry for the draft workspace.
type SchedulerConfig struct {
	StartEpoch        int64   `mapstructure:"start_epoch"`
	DaysToShow        int     `mapstructure:"days_to_show"`
	SlotMinutes       int     `mapstructure:"slot_minutes"`
	PixelsPerMinute   float64 `mapstructure:"pixels_per_minute"`
	ActiveDayStartMin int     `mapstructure:"active_day_start_min"`
	ActiveDayEndMin   int     `mapstructure:"active_day_end_min"`
}

func GetFlagSet() *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("configuration", pflag.ContinueOnError)
	flagSet.StringP("server-url", "s", "http://localhost:8000", "base URL of the MOPAD server")
	flagSet.String("log-level", "INFO", "log level")
	return flagSet
}

// wordSepNormalizeFunc allows for normalization of the flag names (which use - as a separator)
func wordSepNormalizeFunc(f *pflag.FlagSet, name string) pflag.NormalizedName {
	from := "-"
	to := "_"
	name = strings.Replace(name, from, to, -1)
	return pflag.NormalizedName(name)
}

// ReadConfiguration reads and parses the configuration located at
// configPath, which can either point to a single TOML file or to a
// directory, in which case all *.toml files in this directory are
// concatenated. It returns a Config object.
func ReadConfiguration(configPath string, flagSet *pflag.FlagSet) (*Config, error) {
	cfg := Config{}
	flagSet.SetNormalizeFunc(wordSepNormalizeFunc)
	viper.SetDefault("reconnect_secs", defaultReconnectSecs)
	viper.SetDefault("clock_tick_secs", defaultClockTickSecs)
	viper.SetDefault("scheduler.days_to_show", 3)
	viper.SetDefault("scheduler.slot_minutes", 15)
	viper.SetDefault("scheduler.pixels_per_minute", 1.1)
	viper.SetDefault("scheduler.active_day_start_min", 8*60)
	viper.SetDefault("scheduler.active_day_end_min", 22*60)
	err := viper.BindPFlags(flagSet)
	if err != nil {
		globals.AppLogger.Error("could not bind flags (ignored)", "error", err)
	}
	viper.SetEnvPrefix("MOPAD")
	viper.AutomaticEnv()
	if configPath != "" {
		fi, err := os.Stat(configPath)
		if err != nil {
			return nil, err
		}
		contents := make([]byte, 0)
		files := []string{configPath}
		if fi.IsDir() {
			files, err = filepath.Glob(filepath.Join(configPath, "*.toml"))
			if err != nil {
				return nil, err
			}
		}
		for _, configFile := range files {
			fileContents, err := os.ReadFile(configFile)
			if err != nil {
				return nil, err
			}
			contents = append(contents, fileContents...)
			contents = append(contents, '\n')
		}
		viper.SetConfigType("toml")
		err = viper.ReadConfig(bytes.NewBuffer(contents))
		if err != nil {
			globals.AppLogger.Error("could not read config:", "error", err)
		}
	}
	err = viper.Unmarshal(&cfg)
	if err != nil {
		globals.AppLogger.Error("could not unmarshal config:", "error", err)
	}

	return &cfg, nil
}

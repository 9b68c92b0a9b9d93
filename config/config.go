// Package config reads the virtual machine configuration from flags,
// environment and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	ENV_PREFIX      = "synvm"   // Environment variables are SYNVM_<KEY>.
	CONFIG_NAME     = ".synvm"  // Config file searched in $HOME and '.'.
	DEFAULT_PROGRAM = "challenge.bin"
	DEFAULT_LEVEL   = "warn"
)

// Config is the configuration of a run, read from the config file or
// parsed from the command line.
type Config struct {
	Program     string    `mapstructure:"program"`
	Script      string    `mapstructure:"script"`
	Interactive bool      `mapstructure:"interactive"`
	Trace       bool      `mapstructure:"trace"`
	Log         LogConfig `mapstructure:"log"`
}

// LogConfig selects the log output.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

var format = `program: %s
script: %s
interactive: %v
trace: %v
log.level: %s`

func (c Config) String() string {
	return fmt.Sprintf(format, c.Program, c.Script, c.Interactive, c.Trace, c.Log.Level)
}

// LogLevel parses the configured log level.
func (c Config) LogLevel() (level logrus.Level, err error) {
	return logrus.ParseLevel(c.Log.Level)
}

// SetDefaults installs the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("program", DEFAULT_PROGRAM)
	v.SetDefault("script", "")
	v.SetDefault("interactive", true)
	v.SetDefault("trace", false)
	v.SetDefault("log.level", DEFAULT_LEVEL)
}

// Load reads the configuration. If cfgFile is empty, a .synvm config file
// is searched for in the home and current directories, and is optional.
func Load(v *viper.Viper, cfgFile string) (cfg Config, err error) {
	if len(cfgFile) != 0 {
		cfgFile, err = homedir.Expand(cfgFile)
		if err != nil {
			return
		}
		v.SetConfigFile(cfgFile)
	} else {
		var home string
		home, err = homedir.Dir()
		if err != nil {
			return
		}
		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigName(CONFIG_NAME)
	}

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	err = v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if len(cfgFile) != 0 || !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&cfg)
	if err != nil {
		return
	}

	err = cfg.Prepare()

	return
}

// Prepare expands '~' in paths and validates the log level.
func (c *Config) Prepare() (err error) {
	c.Program, err = homedir.Expand(c.Program)
	if err != nil {
		return
	}

	if len(c.Script) != 0 {
		c.Script, err = homedir.Expand(c.Script)
		if err != nil {
			return
		}
	}

	_, err = c.LogLevel()

	return
}

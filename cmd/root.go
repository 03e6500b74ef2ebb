/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	usbserial "github.com/allbin/go-usbserial"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "usbserial",
	Short: "Talk to USB serial adapters",
	Long: `usbserial finds USB serial adapters (FTDI, CP210x, CH34x, Prolific,
CDC ACM), checks that you may use them and reads from or writes to one port
at a time, 8N1 at the configured baud rate.

Devices are picked by index in the list output or by USB identity:
  usbserial read 0
  usbserial send "AT" 0403:6001 --newline
  usbserial connect 2341:0043:95635333231351F0E1A1

The default device, port and baud rate come from the config file
($XDG_CONFIG_HOME/usbserial/config.yaml), USBSERIAL_* environment variables
or flags. 'usbserial select' writes the config file for you.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/usbserial/config.yaml)")
	pf.String("log-level", "warn", "log level: debug, info, warn, error")
	pf.String("backend", "native", "serial backend: native, termios")
	pf.IntP("port", "p", usbserial.DefaultPortIndex, "port index on the selected device")
	pf.IntP("baud", "b", usbserial.DefaultBaudRate, "baud rate")
	pf.Duration("read-timeout", usbserial.DefaultTimeout, "read timeout")
	pf.Duration("write-timeout", usbserial.DefaultTimeout, "write timeout")

	for _, name := range []string{"log-level", "backend", "port", "baud", "read-timeout", "write-timeout"} {
		_ = viper.BindPFlag(name, pf.Lookup(name))
	}

	viper.SetDefault("device", "")
	viper.SetDefault("max-read", usbserial.DefaultMaxReadLength)
	viper.SetDefault("poll-interval", 50*time.Millisecond)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetConfigType("yaml")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if path, err := defaultConfigPath(); err == nil {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("USBSERIAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if _, err := os.Stat(viper.ConfigFileUsed()); err == nil {
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to read config %s: %v\n", viper.ConfigFileUsed(), err)
		}
	}
}

func defaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "usbserial", "config.yaml"), nil
}

// writeConfig persists the current settings, replacing the file atomically
func writeConfig() error {
	return writeConfigTo(viper.GetViper())
}

func writeConfigTo(v *viper.Viper) error {
	file := v.ConfigFileUsed()
	if file == "" {
		return errors.New("no config file path available")
	}

	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmpFile := filepath.Join(dir, ".config.tmp.yaml")
	if err := v.WriteConfigAs(tmpFile); err != nil {
		return err
	}
	defer os.Remove(tmpFile)

	return os.Rename(tmpFile, file)
}

// newLogger builds the stderr logger used by all commands
func newLogger(level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// newHelper creates a Helper configured from flags, env and config file
func newHelper() (*usbserial.Helper, *zap.SugaredLogger, error) {
	log, err := newLogger(viper.GetString("log-level"))
	if err != nil {
		return nil, nil, err
	}

	backend, err := usbserial.ParseBackend(viper.GetString("backend"))
	if err != nil {
		return nil, nil, err
	}

	h, err := usbserial.New(
		usbserial.WithBackend(backend),
		usbserial.WithLogger(log),
	)
	if err != nil {
		return nil, nil, err
	}
	return h, log, nil
}

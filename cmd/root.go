package cmd

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string
var logLevel string

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gaswatch",
		Short: "Gas sensor readings collector with push alerts",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(); err != nil {
				return err
			}
			return initLogger()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gaswatch.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "the minimum severity (error, warn, info, debug) of logs to output")

	rootCmd.AddCommand(NewWebCmd())
	rootCmd.AddCommand(NewVapidCmd())

	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath("/etc/gaswatch")
		viper.SetConfigName(".gaswatch")
	}

	viper.SetEnvPrefix("GASWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err == nil {
		log.Infof("Using config file: %s", viper.ConfigFileUsed())
		return nil
	}

	if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
		return nil
	}

	return errors.Wrap(err, "could not read the config file")
}

func initLogger() error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", logLevel)
	}

	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	return nil
}

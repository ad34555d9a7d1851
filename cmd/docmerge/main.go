// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the docmerge CLI.
// docmerge assembles one PDF from an ordered list of PDFs, images, Word
// documents and HTML pages. The merge, shell and serve subcommands are
// frontends over the same pipeline.
package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docmerge/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// log is configured from log.level before any subcommand runs.
var log = logrus.New()

// rootCmd is the base command for the docmerge CLI.
var rootCmd = &cobra.Command{
	Use:   "docmerge",
	Short: "Merge PDFs, images, Word documents and HTML pages into one PDF",
	Long: `docmerge assembles a single PDF from an ordered list of input files.
PDF pages are copied as-is, images become one page each, and Word documents
and HTML pages are converted through LibreOffice and headless Chrome.

Use merge for a one-shot job, shell for an interactive file list, or serve
to drive the same list over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogger(viper.GetString(keyLogLevel)); err != nil {
			return err
		}
		s, err := secrets.Load(".secrets/", log)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			log.WithField("keys", keys).Debug("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./docmerge.yaml or ~/.config/docmerge/docmerge.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = viper.BindPFlag(keyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("docmerge")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "docmerge"))
		}
	}

	setDefaults()
	viper.SetEnvPrefix("DOCMERGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.WithField("file", viper.ConfigFileUsed()).Debug("using config file")
	}
}

func setupLogger(level string) error {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level == "" {
		level = defaultLogLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

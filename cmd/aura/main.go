package main

import (
	"fmt"
	"os"

	"aura-runtime/internal/infrastructure/env"

	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	envService *env.EnvService
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "aura",
		Short:         "Aura makes web pages easier to use",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			envService = env.NewEnvService()
			if cfgFile != "" {
				if err := envService.ReadFile(cfgFile); err != nil {
					return err
				}
			}
			return bindFlags(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (yaml, json or toml)")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-file", "", "also write JSON logs to this rotated file")
	root.PersistentFlags().String("store", "", "sqlite file for persisted state")

	root.AddCommand(newRunCmd(), newScrapeCmd(), newAdaptCmd(), newWindowCmd())
	return root
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"log-level":  env.KeyLogLevel,
	"log-file":   env.KeyLogFile,
	"store":      env.KeyStorePath,
	"api-url":    env.KeyAPIURL,
	"headless":   env.KeyHeadless,
	"listen":     env.KeyListenAddr,
	"auto-adapt": env.KeyAutoAdapt,
	"width":      env.KeyViewportWidth,
	"height":     env.KeyViewportHeight,
}

func bindFlags(cmd *cobra.Command) error {
	v := envService.Viper()
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

package commands

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFile string
	envFile    string
)

// Execute builds the command tree and runs it.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hserved",
		Short: "HTTP/1.0 demo server",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile == "" {
				return nil
			}

			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("unable to load env file %q: %w", envFile, err)
			}

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "configuration file (default searches for hserved.yaml)")
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "optional .env file loaded before configuration")

	root.AddCommand(serveCmd())
	return root
}

// newViper assembles the configuration sources:  an optional file plus
// HSERVED_* environment variables.
func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("HSERVED")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}

		return v, nil
	}

	v.SetConfigName("hserved")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/hserved")

	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return nil, err
	}

	// no file is fine, defaults and environment apply
	return v, nil
}

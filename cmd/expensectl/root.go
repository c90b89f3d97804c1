package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"expenses/internal/client"
)

const defaultAPIURL = "http://localhost:3000"

// app carries what every subcommand needs once flags and config are read.
type app struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	var configFile string

	root := &cobra.Command{
		Use:           "expensectl",
		Short:         "Manage expenses from the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd, configFile)
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (default $HOME/.config/expenses/config.yaml)")
	root.PersistentFlags().String("api-url", "", "expenses server base URL (env EXPENSES_API_URL)")

	root.AddCommand(
		newListCmd(a),
		newAddCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newUICmd(a),
	)
	return root
}

// loadConfig resolves api_url from flag, environment, config file and
// default, in that order.
func (a *app) loadConfig(cmd *cobra.Command, configFile string) error {
	a.v.SetDefault("api_url", defaultAPIURL)
	a.v.SetEnvPrefix("EXPENSES")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.BindPFlag("api_url", cmd.Root().PersistentFlags().Lookup("api-url")); err != nil {
		return fmt.Errorf("bind api-url flag: %w", err)
	}

	if configFile != "" {
		a.v.SetConfigFile(configFile)
	} else {
		a.v.SetConfigName("config")
		a.v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(filepath.Join(home, ".config", "expenses"))
		}
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func (a *app) apiURL() string {
	return a.v.GetString("api_url")
}

func (a *app) client() (*client.Client, error) {
	return client.New(a.apiURL())
}

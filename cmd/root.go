/*
	Copyright 2023 Markus Papenbrock
*/

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	replayCmd "github.com/mpapenbr/lapracer/pkg/cmd/replay"
	"github.com/mpapenbr/lapracer/pkg/cmd/server"
	tracksCmd "github.com/mpapenbr/lapracer/pkg/cmd/tracks"
	"github.com/mpapenbr/lapracer/pkg/config"
	"github.com/mpapenbr/lapracer/version"
)

const envPrefix = "LRC"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "lapracer",
	Short: "Server for the arcade lap racing game",
	Long: `lapracer runs the race simulation for browser clients over websockets.
Each connection gets its own race, completion records are logged and
optionally published to NATS.

Settings are read from flags, LRC_* environment variables and
$HOME/.lapracer.yml, in that order of precedence.`,
	Version: version.FullVersion,
}

// Execute is called once by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.lapracer.yml)")
	rootCmd.PersistentFlags().StringVar(&config.WaitForServices,
		"wait-for-services",
		"15s",
		"Duration to wait for NATS to accept connections")

	rootCmd.AddCommand(server.NewServerCmd())
	rootCmd.AddCommand(replayCmd.NewReplayCmd())
	rootCmd.AddCommand(tracksCmd.NewTracksCmd())
}

func initConfig() {
	v := viper.GetViper()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		addConfigSearchPaths(v)
	}
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	// a missing config file is fine, flags and env still apply
	if err := v.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", v.ConfigFileUsed())
	}
	bindCommandTree(rootCmd, v)
}

// addConfigSearchPaths looks for .lapracer.yml in the home and working directory.
func addConfigSearchPaths(v *viper.Viper) {
	home, err := os.UserHomeDir()
	cobra.CheckErr(err)
	v.AddConfigPath(home)
	v.AddConfigPath(".")
	v.SetConfigType("yaml")
	v.SetConfigName(".lapracer")
}

func bindCommandTree(cmd *cobra.Command, v *viper.Viper) {
	bindFlags(cmd, v)
	for _, sub := range cmd.Commands() {
		bindCommandTree(sub, v)
	}
}

// bindFlags fills every flag not given on the command line from viper.
// Flag --nats-url is looked up as LRC_NATS_URL and as key nats-url in the
// config file.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// AutomaticEnv does not map dashes
		if strings.Contains(f.Name, "-") {
			envVar := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name, envVar); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v\n", envVar, err)
			}
		}
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
			fmt.Fprintf(os.Stderr, "Could not set flag %s: %v\n", f.Name, err)
		}
	})
}

/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "blockmesh",
	Short: "Structured multi block mesh generator",
	Long: `
Generates structured hexahedral (3D) or quadrilateral (2D) meshes from a
coarse description of blocks, subdivisions and gradings, optionally sliced
into partitions and assembled on several ranks.

blockmesh generate -I channel.yaml --ranks 4 --partition`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		var level log.Level
		if level, err = log.ParseLevel(viper.GetString("log-level")); err != nil {
			return
		}
		if viper.GetBool("verbose") {
			level = log.DebugLevel
		}
		log.SetLevel(level)
		if cf := viper.ConfigFileUsed(); cf != "" {
			log.Debugf("Using config file: %s", cf)
		}
		return
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.blockmesh.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: panic, fatal, error, warn, info, debug or trace")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging, overrides log-level")
	rootCmd.PersistentFlags().IntP("ranks", "r", 1, "number of ranks to generate the mesh on")
	rootCmd.PersistentFlags().StringP("direction", "D", "x", "axis to partition blocks along: x, y or z")
	for _, key := range []string{"log-level", "verbose", "ranks", "direction"} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".blockmesh")
	}
	viper.SetEnvPrefix("blockmesh")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// A missing config file is fine, a broken one is not
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			fmt.Println(err)
			os.Exit(1)
		}
	}
}

// parseDirection converts an axis name or number into an axis index
func parseDirection(s string) (axis int, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x", "0":
		return 0, nil
	case "y", "1":
		return 1, nil
	case "z", "2":
		return 2, nil
	}
	return -1, fmt.Errorf("unknown direction %q, use x, y or z", s)
}

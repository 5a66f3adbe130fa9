package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"textpilot/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "textpilot",
	Short: "AI text tools",
	Long: `textpilot corrects, enhances, translates or executes text through a
generative text API, either a remote content-generation endpoint or a local
chat-completion server.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")
}

func initConfig() {
	config.Init(cfgFile)
}

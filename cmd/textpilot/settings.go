package main

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"textpilot/internal/pkg/logger"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the endpoint settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the saved settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(&logger.Options{Format: "console", Output: "stderr"})
		if err != nil {
			return err
		}
		defer a.Close()

		current, err := a.store.Load(cmd.Context())
		if err != nil {
			return err
		}
		out, err := sonic.ConfigStd.MarshalIndent(current, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save the endpoint URL and/or key",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("url") && !cmd.Flags().Changed("key") {
			return fmt.Errorf("nothing to set: pass --url and/or --key")
		}

		a, err := newApp(&logger.Options{Format: "console", Output: "stderr"})
		if err != nil {
			return err
		}
		defer a.Close()

		current, err := a.store.Load(cmd.Context())
		if err != nil {
			return err
		}
		current = applyOverrides(cmd, current)
		if err := a.store.Save(cmd.Context(), current); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Settings saved (%s backend)\n", current.Endpoint().Kind())
		return nil
	},
}

func SetupSettingsCmd() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)

	settingsSetCmd.Flags().String("url", "", "Endpoint URL")
	settingsSetCmd.Flags().String("key", "", "API key, or model name for a local server")
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"textpilot/internal/core"
	"textpilot/internal/pkg/logger"
	"textpilot/internal/settings"
)

var runCmd = &cobra.Command{
	Use:   "run <action> [text...]",
	Short: "Run one action from the terminal",
	Long: `Run one action (correct, enhance, translate, execute) and print the result.
The text is taken from the remaining arguments, or from stdin when none are given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		action, err := core.ParseAction(args[0])
		if err != nil {
			return err
		}

		text := strings.Join(args[1:], " ")
		if len(args) == 1 {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			text = string(data)
		}

		language, _ := cmd.Flags().GetString("language")
		prompt, err := core.BuildPrompt(action, text, language)
		if err != nil {
			return err
		}

		// 结果写 stdout，日志写 stderr
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

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := a.client.Send(ctx, prompt, current.Endpoint())
		if err != nil {
			if core.IsCancelled(err) {
				return errors.New("cancelled")
			}
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), result)
		return nil
	},
}

// applyOverrides replaces stored values with --url/--key when given
func applyOverrides(cmd *cobra.Command, s settings.Settings) settings.Settings {
	if cmd.Flags().Changed("url") {
		s.APIURL, _ = cmd.Flags().GetString("url")
	}
	if cmd.Flags().Changed("key") {
		s.APIKey, _ = cmd.Flags().GetString("key")
	}
	return s
}

func SetupRunCmd() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("language", "l", core.DefaultLanguage, "Target language for translate")
	runCmd.Flags().String("url", "", "Endpoint URL (overrides saved settings)")
	runCmd.Flags().String("key", "", "API key or local model name (overrides saved settings)")
}

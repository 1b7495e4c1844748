package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/AltairaLabs/codestream/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and validate client configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a ClientConfig manifest against its schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigValidate(cmd, args[0])
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration after defaults and environment overrides",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadClientConfig(viper.GetString(flagConfig))
		if err != nil {
			return err
		}
		return printConfig(cmd, cfg)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigValidate(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	cfg, err := config.ParseClientConfig(data)
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✔ %s is valid", filepath.Base(path))))
	return nil
}

func printConfig(cmd *cobra.Command, cfg *config.ClientConfig) error {
	out, err := yaml.Marshal(&config.ClientConfigManifest{
		APIVersion: config.APIVersion,
		Kind:       config.KindClientConfig,
		Spec:       *cfg,
	})
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

// Command codegen streams a code generation session from the backend and
// writes each variant's output to disk.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AltairaLabs/codestream/runtime/logger"
	"github.com/AltairaLabs/codestream/runtime/version"
)

const (
	flagConfig  = "config"
	flagVerbose = "verbose"
	flagEnvFile = "env-file"
)

var rootCmd = &cobra.Command{
	Use:           "codegen",
	Short:         "Generate code from screenshots and screen recordings",
	Version:       version.GetVersion(),
	SilenceUsage:  true,  // Don't print usage on error
	SilenceErrors: false, // Do print errors
	Long: `codegen sends a screenshot or screen recording to a code generation
backend over WebSocket, streams the variants it produces and writes each
finished variant to the output directory.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(viper.GetString(flagEnvFile)); err != nil {
			return err
		}
		if cmd.Flags().Changed(flagVerbose) {
			verbose, err := cmd.Flags().GetBool(flagVerbose)
			if err != nil {
				return fmt.Errorf("failed to get verbose flag: %w", err)
			}
			logger.SetVerbose(verbose)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringP(flagConfig, "c", "", "Client config file (ClientConfig manifest)")
	rootCmd.PersistentFlags().BoolP(flagVerbose, "v", false, "Enable debug logging, including protocol frames")
	rootCmd.PersistentFlags().String(flagEnvFile, ".env", "Dotenv file to load before running")

	_ = viper.BindPFlag(flagConfig, rootCmd.PersistentFlags().Lookup(flagConfig))
	_ = viper.BindPFlag(flagEnvFile, rootCmd.PersistentFlags().Lookup(flagEnvFile))

	viper.SetEnvPrefix("CODEGEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// loadEnvFile loads a dotenv file without overriding variables already set.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setupVersion configures the version display
func setupVersion() {
	rootCmd.SetVersionTemplate(version.GetVersionInfo() + "\n")
}

func Execute() {
	setupVersion()
	if err := rootCmd.Execute(); err != nil {
		// Error already printed by cobra
		os.Exit(1)
	}
}

func main() {
	Execute()
}

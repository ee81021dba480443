package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/langid/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and generate configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Long: `Print the configuration after merging defaults, the config file,
LANGID_* environment variables and command-line flags.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(GetConfig())
		if err != nil {
			return fmt.Errorf("failed to marshal configuration: %w", err)
		}
		out := cmd.OutOrStdout()
		if used := GetConfigLoader().GetConfigFileUsed(); used != "" {
			_, _ = fmt.Fprintf(out, "# config file: %s\n", used)
		}
		_, err = out.Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write a configuration file holding the defaults",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := config.ConfigFileName + ".yaml"
		if len(args) == 1 {
			filename = args[0]
		}
		if err := config.GenerateDefaultConfigFile(filename); err != nil {
			return fmt.Errorf("failed to write %s: %w", filename, err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", filename)
		return nil
	},
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show where configuration files are searched",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		GetConfigLoader().PrintConfigInfo(cmd.OutOrStdout())
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configInitCmd, configPathsCmd)
	rootCmd.AddCommand(configCmd)
}

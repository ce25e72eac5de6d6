package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tome-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and edit tome configuration by dotted key.

Examples:
  tome config list
  tome config get embedding.model
  tome config set vision.enabled false
  tome config set vector.collection textbook`,
	RunE: runConfigList,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration values",
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value and save it",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	for _, key := range cfg.Keys() {
		val, _ := cfg.Get(key)
		cmd.Printf("%s = %s\n", key, displayValue(key, val))
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	val, ok := cfg.Get(key)
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}

	cmd.Println(displayValue(key, val))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Save(cfgFile); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	cmd.Printf("Set %s = %s\n", key, displayValue(key, value))
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	path := cfgFile
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}

	cmd.Println(path)
	return nil
}

// displayValue renders a config value for output, masking secrets.
func displayValue(key string, val any) string {
	s := fmt.Sprintf("%v", val)
	if strings.HasSuffix(key, "api_key") && s != "" {
		return maskAPIKey(s)
	}
	return s
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

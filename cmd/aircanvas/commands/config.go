package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/aircanvas/internal/plugin"
	"github.com/ayusman/aircanvas/internal/printer"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Print the configuration after the defaults, the --config file and the
AIRCANVAS_* environment variables have been applied. The output is a valid
config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	},
}

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List the plugins found in the plugin directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		manager := plugin.NewManager(cfg.Plugins.Dir, nil)
		if err := manager.Discover(); err != nil {
			return printer.Error("Failed to scan plugins", err.Error())
		}

		plugins := manager.List()
		if len(plugins) == 0 {
			printer.Faint("No plugins in %s\n", cfg.Plugins.Dir)
			return nil
		}
		rows := make([][]string, 0, len(plugins))
		for _, p := range plugins {
			rows = append(rows, []string{p.Manifest.Name, p.Manifest.Version, strings.Join(p.Manifest.Actions, ","), p.Manifest.Description})
		}
		printer.Table(cmd.OutOrStdout(), []string{"NAME", "VERSION", "ACTIONS", "DESCRIPTION"}, rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(pluginsCmd)
}

package cli

import (
	"fmt"

	"github.com/Dicklesworthstone/diveboard/internal/config"
	"github.com/spf13/cobra"
)

var flagConfigGlobal bool

func init() {
	configCmd.PersistentFlags().BoolVar(&flagConfigGlobal, "global", false, "operate on user config (~/.diveboard/config.toml)")

	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)

	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or modify diveboard configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := newWriter(cmd)
		if out.Structured() {
			return out.Write(appConfig)
		}
		w := cmd.OutOrStdout()
		for _, key := range config.Keys() {
			val, _ := config.GetValue(appConfig, key)
			fmt.Fprintf(w, "%s = %v\n", key, val)
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		val, ok := config.GetValue(appConfig, args[0])
		if !ok {
			return fmt.Errorf("unknown key %q", args[0])
		}
		out := newWriter(cmd)
		if out.Structured() {
			return out.Write(map[string]any{
				"key":   args[0],
				"value": val,
			})
		}
		return out.Write(val)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in the project (or --global) config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := projectPath()
		if err != nil {
			return err
		}
		userPath, projectPath := config.ConfigPaths(project, flagConfig)
		target := projectPath
		if flagConfigGlobal {
			target = userPath
		}

		value, err := config.ParseValue(args[0], args[1])
		if err != nil {
			return err
		}
		if err := config.CheckValue(args[0], value); err != nil {
			return err
		}
		if err := config.WriteValue(target, args[0], value); err != nil {
			return err
		}

		out := newWriter(cmd)
		if out.Structured() {
			return out.Write(map[string]any{
				"path":  target,
				"key":   args[0],
				"value": value,
			})
		}
		out.Success(fmt.Sprintf("%s = %v (%s)", args[0], value, target))
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable configuration keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return newWriter(cmd).List(config.Keys())
	},
}

package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/agentboard/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "agentboard",
	Short: "Live board and attention queue for Claude agent sessions",
	Long: `agentboard watches the Claude data directory for team and solo task
sessions, classifies messages that need a human response, and keeps a
kanban board of work in progress.

Run 'agentboard serve' for the HTTP/SSE API or 'agentboard watch' for the
terminal board.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.config/agentboard/config.yaml)")
	flags.String("claude-dir", "", "Claude data directory holding teams/ and tasks/ (default ~/.claude)")
	flags.String("log-level", "", "log level: debug, info, warn, error")

	bindFlags(flags, map[string]string{
		"config":             "config",
		"sources.claude_dir": "claude-dir",
		"logging.level":      "log-level",
	})
}

// bindFlags binds viper keys to persistent flags. Unset flags do not
// override config values.
func bindFlags(flags *pflag.FlagSet, bindings map[string]string) {
	for key, name := range bindings {
		if f := flags.Lookup(name); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("AGENTBOARD")
	// e.g. AGENTBOARD_SERVER_ADDR for server.addr
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

package cmd

import (
	"strings"

	"github.com/avandyck/rostrum/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "rostrum",
	Short: "Structured AI debate orchestrator",
	Long: `Rostrum runs structured debates between two AI debaters over a fixed
number of rounds, then scores the transcript with a six-judge panel.
Sessions are persisted after every turn, so an interrupted debate picks
up exactly where it stopped.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/rostrum/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "data directory for sessions and logs (default is $HOME/.rostrum)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("store.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	// API keys commonly live in a .env next to the working directory
	_ = godotenv.Load()

	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/rostrum")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("ROSTRUM")
	// Replace dots with underscores for nested keys in env vars
	// e.g., ROSTRUM_SERVER_ADDR for server.addr
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-go-golems/glazed/pkg/cli"
	"github.com/go-go-golems/glazed/pkg/help"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-go-golems/pleader/cmd/pleader/cmds"
	"github.com/go-go-golems/pleader/pkg/config"
	"github.com/go-go-golems/pleader/pkg/doc"
	"github.com/go-go-golems/pleader/pkg/logging"
)

var rootCmd = &cobra.Command{
	Use:   "pleader",
	Short: "pleader is a terminal client for the Pleader AI legal assistant",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// reinitialize the logger because we can now parse --log-level and co
		// from the command line flag
		return initLogger()
	},
	SilenceUsage: true,
}

func initLogger() error {
	return logging.InitLogger(&logging.Config{
		Level:      viper.GetString("log-level"),
		LogFile:    viper.GetString("log-file"),
		LogFormat:  viper.GetString("log-format"),
		WithCaller: viper.GetBool("with-caller"),
	})
}

func initCommands(rootCmd *cobra.Command, configPath string) error {
	viper.SetEnvPrefix("pleader")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.pleader")

		xdgConfigPath, err := os.UserConfigDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(xdgConfigPath, "pleader"))
		}
	}

	err := viper.ReadInConfig()
	// a missing config file is fine, everything has a default
	if _, ok := err.(viper.ConfigFileNotFoundError); !ok && err != nil {
		return err
	}
	// values from a local .env never override the real environment
	envLoaded := godotenv.Load() == nil
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	config.SetDefaults(viper.GetViper())

	err = viper.BindPFlags(rootCmd.PersistentFlags())
	if err != nil {
		return err
	}

	// configure logging from the config file until the flags are parsed
	if err := initLogger(); err != nil {
		return err
	}

	log.Debug().
		Str("config", viper.ConfigFileUsed()).
		Bool("dotenv", envLoaded).
		Msg("Loaded configuration")

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()

	flags.Bool("with-caller", false, "Log caller")
	flags.String("log-level", "info", "Log level (trace, debug, info, warn, error, fatal)")
	flags.String("log-format", "text", "Log format (json, text)")
	flags.String("log-file", "", "Log file (default: stderr)")
	flags.String("config", "", "Path to config file (default ~/.config/pleader/config.yaml)")

	flags.String("backend", config.BackendHTTP, "Backend to talk to (http, local)")
	flags.String("server-url", "", "URL of the chat backend")
	flags.String("token", "", "Session token sent as bearer token")
	flags.String("db", "", "SQLite database used by the local backend")
	flags.String("assistant", "", "Assistant used by the local backend (echo, openai)")
	flags.String("openai-api-key", "", "OpenAI API key")
	flags.String("openai-model", "", "OpenAI model")
	flags.String("openai-base-url", "", "OpenAI compatible API base URL")
	flags.Int("history-context", 0, "Number of prior messages sent to the assistant")

	// parse the flags one time just to catch --config
	configFile := ""
	for idx, arg := range os.Args {
		if arg == "--config" && len(os.Args) > idx+1 {
			configFile = os.Args[idx+1]
		}
		if strings.HasPrefix(arg, "--config=") {
			configFile = strings.TrimPrefix(arg, "--config=")
		}
	}

	helpSystem := help.NewHelpSystem()
	err := doc.AddDocToHelpSystem(helpSystem)
	cobra.CheckErr(err)
	helpSystem.SetupCobraRootCommand(rootCmd)

	err = initCommands(rootCmd, configFile)
	cobra.CheckErr(err)

	historyCmdInstance, err := cmds.NewHistoryCommand()
	cobra.CheckErr(err)
	historyCommand, err := cli.BuildCobraCommandFromGlazeCommand(historyCmdInstance)
	cobra.CheckErr(err)

	showCmdInstance, err := cmds.NewShowCommand()
	cobra.CheckErr(err)
	showCommand, err := cli.BuildCobraCommandFromWriterCommand(showCmdInstance)
	cobra.CheckErr(err)

	rootCmd.AddCommand(
		cmds.NewChatCommand(),
		cmds.NewSendCommand(),
		historyCommand,
		showCommand,
		cmds.NewDeleteCommand(),
		cmds.NewExportCommand(),
		cmds.NewRenderCommand(),
		cmds.NewServeCommand(),
		cmds.NewConfigCommand(),
	)
}

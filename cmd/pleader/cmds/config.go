package cmds

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/go-go-golems/pleader/pkg/config"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(newConfigInitCommand(), newConfigShowCommand())
	return cmd
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "pleader", "config.yaml")
}

func newConfigInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("path")
			if path == "" {
				path = defaultConfigPath()
			}
			force, _ := cmd.Flags().GetBool("force")

			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().String("path", "", "Where to write the config (default ~/.config/pleader/config.yaml)")
	cmd.Flags().Bool("force", false, "Overwrite an existing file")
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := config.FromViper(viper.GetViper())
			if s.OpenAIAPIKey != "" {
				s.OpenAIAPIKey = "***"
			}
			if s.Token != "" {
				s.Token = "***"
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "# config file: %s\n", viper.ConfigFileUsed())
			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent(2)
			if err := encoder.Encode(s); err != nil {
				return err
			}
			return encoder.Close()
		},
	}
}

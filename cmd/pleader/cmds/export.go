package cmds

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/pleader/pkg/export"
)

func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <chat-id>",
		Short: "Export a chat as txt, md or html",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatName, _ := cmd.Flags().GetString("format")
			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}

			s, err := loadSettings()
			if err != nil {
				return err
			}
			messenger, closeMessenger, err := openMessenger(s)
			if err != nil {
				return err
			}
			defer closeMessenger()

			chat, err := messenger.FetchConversation(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			output, _ := cmd.Flags().GetString("output")
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return errors.Wrap(err, "could not create output file")
				}
				defer func() {
					_ = f.Close()
				}()
				w = f
			}

			if err := export.NewExporter().Export(w, chat, format); err != nil {
				return err
			}
			if output != "" && output != "-" {
				log.Info().Str("file", output).Str("format", string(format)).Msg("exported chat")
			}
			return nil
		},
	}

	formats := []string{}
	for _, f := range export.Formats() {
		formats = append(formats, string(f))
	}
	cmd.Flags().String("format", string(export.FormatTXT), "Export format ("+strings.Join(formats, ", ")+")")
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	return cmd
}

package cmds

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/go-go-golems/pleader/pkg/markup"
)

type blockDump struct {
	Kind    markup.BlockKind `yaml:"kind"`
	Level   int              `yaml:"level,omitempty"`
	Ordered bool             `yaml:"ordered,omitempty"`
	Text    string           `yaml:"text,omitempty"`
	Spans   []markup.Span    `yaml:"spans,omitempty"`
}

func NewRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render message markup from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return errors.Wrap(err, "could not open input")
				}
				defer func() {
					_ = f.Close()
				}()
				in = f
			}

			b, err := io.ReadAll(in)
			if err != nil {
				return errors.Wrap(err, "could not read input")
			}

			out := cmd.OutOrStdout()
			blocks, _ := cmd.Flags().GetBool("blocks")
			if blocks {
				return dumpBlocks(out, markup.Render(string(b)))
			}

			_, err = fmt.Fprintln(out, newRenderer(os.Stdout).Render(string(b)))
			return err
		},
	}

	cmd.Flags().Bool("blocks", false, "Print the block structure as YAML")
	return cmd
}

func dumpBlocks(w io.Writer, blocks []markup.Block) error {
	dump := make([]blockDump, 0, len(blocks))
	for _, b := range blocks {
		d := blockDump{Kind: b.Kind()}
		switch v := b.(type) {
		case markup.Heading:
			d.Level = v.Level
			d.Text = v.Text
		case markup.ListItem:
			d.Ordered = v.Ordered
			d.Text = v.Text
		case markup.Paragraph:
			d.Text = v.Text
			d.Spans = v.Spans
		case markup.Blank:
		}
		dump = append(dump, d)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(dump); err != nil {
		return errors.Wrap(err, "could not encode blocks")
	}
	return encoder.Close()
}

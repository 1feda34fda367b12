package cmds

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/pkg/errors"

	"github.com/go-go-golems/pleader/pkg/conversation"
)

// ShowCommand prints a chat as rendered text. It is a writer command because
// the message bodies go through the markup renderer, not through rows.
type ShowCommand struct {
	*cmds.CommandDescription
}

var _ cmds.WriterCommand = (*ShowCommand)(nil)

type ShowSettings struct {
	ChatID string `glazed.parameter:"chat-id"`
}

func NewShowCommand() (*ShowCommand, error) {
	return &ShowCommand{
		CommandDescription: cmds.NewCommandDescription(
			"show",
			cmds.WithShort("Print a chat"),
			cmds.WithArguments(
				parameters.NewParameterDefinition(
					"chat-id",
					parameters.ParameterTypeString,
					parameters.WithHelp("Chat to print"),
					parameters.WithRequired(true),
				),
			),
		),
	}, nil
}

func (c *ShowCommand) RunIntoWriter(ctx context.Context, parsedLayers *layers.ParsedLayers, w io.Writer) error {
	ss := &ShowSettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, ss); err != nil {
		return errors.Wrap(err, "could not initialize settings")
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

	chat, err := messenger.FetchConversation(ctx, ss.ChatID)
	if err != nil {
		return err
	}

	writeConversation(w, newRenderer(os.Stdout), chat)
	return nil
}

func writeConversation(w io.Writer, r *renderer, chat *conversation.Conversation) {
	_, _ = fmt.Fprintf(w, "%s\n\n", chat.Title)
	for _, m := range chat.Messages {
		_, _ = fmt.Fprintln(w, r.Label(m))
		_, _ = fmt.Fprintf(w, "%s\n\n", r.Render(m.Content))
	}
}

package cmds

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/pleader/pkg/conversation"
	"github.com/go-go-golems/pleader/pkg/events"
)

func NewSendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send [message...]",
		Short: "Send one message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			messenger, closeMessenger, err := openMessenger(s)
			if err != nil {
				return err
			}
			defer closeMessenger()

			chatID, _ := cmd.Flags().GetString("chat")
			printEvents, _ := cmd.Flags().GetBool("print-events")
			text := strings.Join(args, " ")

			if !printEvents {
				return sendAndPrint(cmd, conversation.NewController(messenger), chatID, text)
			}

			router, err := events.NewEventRouter(events.WithVerbose(debugLogging()))
			if err != nil {
				return err
			}
			defer func() {
				if err := router.Close(); err != nil {
					log.Error().Err(err).Msg("Failed to close event router")
				}
			}()
			router.AddHandler("printer", events.TopicConversation, events.PrinterFunc("event", cmd.ErrOrStderr()))

			controller := conversation.NewController(messenger, conversation.WithEventSink(router.Sink()))

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			eg := errgroup.Group{}
			eg.Go(func() error {
				defer cancel()
				return router.Run(ctx)
			})
			eg.Go(func() error {
				defer cancel()
				<-router.Running()
				return sendAndPrint(cmd, controller, chatID, text)
			})
			return eg.Wait()
		},
	}

	cmd.Flags().String("chat", "", "Continue this chat instead of starting a new one")
	cmd.Flags().Bool("print-events", false, "Print controller events to stderr")
	return cmd
}

func sendAndPrint(cmd *cobra.Command, controller *conversation.Controller, chatID string, text string) error {
	ctx := cmd.Context()
	if chatID != "" {
		if err := controller.LoadExisting(ctx, chatID); err != nil {
			return err
		}
	}

	accepted, err := controller.Submit(ctx, text)
	if err != nil {
		return err
	}
	if !accepted {
		return errors.New("message is empty")
	}

	state := controller.Snapshot()
	reply := state.Messages[len(state.Messages)-1]
	r := newRenderer(os.Stdout)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), r.Render(reply.Content))
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "chat: %s\n", state.ConversationID)
	return nil
}

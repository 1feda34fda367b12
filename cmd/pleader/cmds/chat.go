package cmds

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/pleader/pkg/conversation"
	"github.com/go-go-golems/pleader/pkg/events"
	"github.com/go-go-golems/pleader/pkg/logging"
	"github.com/go-go-golems/pleader/pkg/ui"
)

func NewChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [chat-id]",
		Short: "Open the interactive chat",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}

			// the terminal belongs to the UI, logs only go to the log file
			err = logging.InitLogger(&logging.Config{
				Level:      s.LogLevel,
				LogFormat:  s.LogFormat,
				LogFile:    s.LogFile,
				WithCaller: s.WithCaller,
				Quiet:      true,
			})
			if err != nil {
				return err
			}

			messenger, closeMessenger, err := openMessenger(s)
			if err != nil {
				return err
			}
			defer closeMessenger()

			routerOptions := []events.EventRouterOption{
				events.WithVerbose(debugLogging()),
			}
			eventsFile, _ := cmd.Flags().GetString("events-file")
			if eventsFile != "" {
				f, err := os.Create(eventsFile)
				if err != nil {
					return errors.Wrap(err, "could not create events file")
				}
				defer func() {
					_ = f.Close()
				}()
				routerOptions = append(routerOptions, events.WithDumpOutput(f))
			}

			router, err := events.NewEventRouter(routerOptions...)
			if err != nil {
				return err
			}
			defer func() {
				if err := router.Close(); err != nil {
					log.Error().Err(err).Msg("Failed to close event router")
				}
			}()

			history := conversation.NewHistory(messenger)
			controller := conversation.NewController(messenger,
				conversation.WithEventSink(router.Sink()),
				conversation.WithHistory(history),
				conversation.WithIdentity(conversation.Identity{Name: os.Getenv("USER")}),
			)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			options := []tea.ProgramOption{
				tea.WithAltScreen(),
				tea.WithMouseCellMotion(),
				tea.WithContext(ctx),
			}
			if !isatty.IsTerminal(os.Stdin.Fd()) {
				tty, err := ui.OpenTTY()
				if err != nil {
					return errors.Wrap(err, "stdin is not a terminal")
				}
				defer func() {
					_ = tty.Close()
				}()
				options = append(options, tea.WithInput(tty))
			}

			p := tea.NewProgram(ui.NewModel(ctx, controller, history), options...)
			router.AddConversationHandler("ui", ui.NewForwarder(p))
			if eventsFile != "" {
				router.AddHandler("dump", events.TopicConversation, router.DumpRawEvents)
			}

			eg := errgroup.Group{}
			eg.Go(func() error {
				defer cancel()
				return router.Run(ctx)
			})

			eg.Go(func() error {
				defer cancel()
				<-router.Running()

				if len(args) == 1 {
					go func() {
						_ = controller.LoadExisting(ctx, args[0])
					}()
				}
				if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
					return err
				}
				return nil
			})

			return eg.Wait()
		},
	}

	cmd.Flags().String("events-file", "", "Write every controller event as JSON to this file")

	return cmd
}

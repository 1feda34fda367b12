package cmds

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/pleader/pkg/server"
)

func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat API from the local database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			listen, _ := cmd.Flags().GetString("listen")
			if listen == "" {
				listen = s.Listen
			}
			if listen == "" {
				return errors.New("no listen address")
			}

			backend, closeBackend, err := openLocalBackend(s)
			if err != nil {
				return err
			}
			defer closeBackend()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(backend, server.WithToken(s.Token))

			eg, ctx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				return srv.ListenAndServe(ctx, listen)
			})
			return eg.Wait()
		},
	}

	cmd.Flags().String("listen", "", "Address to listen on (default from config)")
	return cmd
}

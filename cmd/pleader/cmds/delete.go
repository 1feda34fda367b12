package cmds

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-go-golems/pleader/pkg/conversation"
)

func NewDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <chat-id>...",
		Short: "Delete chats",
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

			controller := conversation.NewController(messenger)
			for _, id := range args {
				if err := controller.DeleteConversation(cmd.Context(), id); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			}
			return nil
		},
	}
}

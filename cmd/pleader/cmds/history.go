package cmds

import (
	"context"

	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"
	"github.com/pkg/errors"

	"github.com/go-go-golems/pleader/pkg/conversation"
)

type HistoryCommand struct {
	*cmds.CommandDescription
}

var _ cmds.GlazeCommand = (*HistoryCommand)(nil)

type HistorySettings struct {
	Search string `glazed.parameter:"search"`
}

func NewHistoryCommand() (*HistoryCommand, error) {
	glazedParameterLayer, err := settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, errors.Wrap(err, "could not create glazed parameter layer")
	}

	return &HistoryCommand{
		CommandDescription: cmds.NewCommandDescription(
			"history",
			cmds.WithShort("List previous chats, most recent first"),
			cmds.WithFlags(
				parameters.NewParameterDefinition(
					"search",
					parameters.ParameterTypeString,
					parameters.WithHelp("Only list chats whose title contains this text"),
					parameters.WithDefault(""),
				),
			),
			cmds.WithLayersList(glazedParameterLayer),
		),
	}, nil
}

func (c *HistoryCommand) RunIntoGlazeProcessor(ctx context.Context, parsedLayers *layers.ParsedLayers, gp middlewares.Processor) error {
	hs := &HistorySettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, hs); err != nil {
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

	history := conversation.NewHistory(messenger)
	if err := history.Refresh(ctx); err != nil {
		return err
	}

	return addSummaryRows(ctx, gp, history.Filter(hs.Search))
}

// addSummaryRows emits one row per conversation, in list order.
func addSummaryRows(ctx context.Context, gp middlewares.Processor, items []conversation.Summary) error {
	for _, item := range items {
		row := types.NewRow(
			types.MRP("id", item.ID),
			types.MRP("updated_at", item.UpdatedAt),
			types.MRP("title", item.Title),
		)
		if err := gp.AddRow(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

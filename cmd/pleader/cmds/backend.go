package cmds

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/go-go-golems/pleader/pkg/assistant"
	"github.com/go-go-golems/pleader/pkg/backend/local"
	"github.com/go-go-golems/pleader/pkg/client"
	"github.com/go-go-golems/pleader/pkg/config"
	"github.com/go-go-golems/pleader/pkg/conversation"
	"github.com/go-go-golems/pleader/pkg/markup"
	"github.com/go-go-golems/pleader/pkg/store/sqlite"
	"github.com/go-go-golems/pleader/pkg/ui"
)

func loadSettings() (*config.Settings, error) {
	s := config.FromViper(viper.GetViper())
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// debugLogging routes watermill's own logs into zerolog when debugging.
func debugLogging() bool {
	return zerolog.GlobalLevel() <= zerolog.DebugLevel
}

// openMessenger returns the configured backend and a function releasing it.
func openMessenger(s *config.Settings) (conversation.Messenger, func(), error) {
	switch s.Backend {
	case config.BackendLocal:
		return openLocalBackend(s)
	default:
		log.Debug().Str("server", s.ServerURL).Msg("using http backend")
		return client.New(s.ServerURL, client.WithToken(s.Token)), func() {}, nil
	}
}

func openLocalBackend(s *config.Settings) (*local.Backend, func(), error) {
	a, err := newAssistant(s)
	if err != nil {
		return nil, nil, err
	}
	store, err := sqlite.Open(s.DB)
	if err != nil {
		return nil, nil, err
	}
	log.Debug().Str("db", s.DB).Str("assistant", s.Assistant).Msg("using local backend")

	closeStore := func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("could not close store")
		}
	}
	return local.New(store, a), closeStore, nil
}

func newAssistant(s *config.Settings) (assistant.Assistant, error) {
	switch s.Assistant {
	case config.AssistantOpenAI:
		c, err := assistant.MakeClient(s.OpenAIAPIKey, s.OpenAIBaseURL)
		if err != nil {
			return nil, err
		}
		return assistant.NewOpenAIAssistant(c,
			assistant.WithModel(s.OpenAIModel),
			assistant.WithContextMessages(s.HistoryContext),
		), nil
	case config.AssistantEcho:
		return assistant.NewEchoAssistant(), nil
	default:
		return nil, errors.Errorf("unknown assistant %q", s.Assistant)
	}
}

// renderer prints message content styled on a terminal and as plain text
// everywhere else.
type renderer struct {
	styled bool
	width  int
	style  *ui.Style
}

func newRenderer(f *os.File) *renderer {
	ret := &renderer{style: ui.DefaultStyles()}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		ret.styled = true
		if w, _, err := term.GetSize(int(f.Fd())); err == nil {
			ret.width = w
		}
	}
	return ret
}

func (r *renderer) Render(content string) string {
	if !r.styled {
		return markup.PlainText(markup.Render(content))
	}
	return ui.RenderContent(content, r.width, r.style)
}

func (r *renderer) Label(m conversation.Message) string {
	label := "Pleader AI"
	if m.IsUser() {
		label = "You"
	}
	if !m.Timestamp.IsZero() {
		label += " (" + m.Timestamp.Local().Format("03:04 PM") + ")"
	}
	if !r.styled {
		return label
	}
	if m.IsUser() {
		return r.style.UserLabel.Render(label)
	}
	return r.style.AssistantLabel.Render(label)
}

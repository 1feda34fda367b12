package conversation

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// History caches the conversation list of the current user.
type History struct {
	messenger Messenger

	mu    sync.RWMutex
	items []Summary
}

func NewHistory(messenger Messenger) *History {
	return &History{
		messenger: messenger,
	}
}

var _ HistoryRefresher = (*History)(nil)

// Refresh reloads the list. On failure the previous list is kept.
func (h *History) Refresh(ctx context.Context) error {
	items, err := h.messenger.ListConversations(ctx)
	if err != nil {
		return errors.Wrap(err, "could not list conversations")
	}

	sorted := make([]Summary, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
	})

	h.mu.Lock()
	h.items = sorted
	h.mu.Unlock()

	log.Debug().Int("conversations", len(sorted)).Msg("refreshed conversation history")

	return nil
}

func (h *History) Items() []Summary {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ret := make([]Summary, len(h.items))
	copy(ret, h.items)
	return ret
}

// Filter matches query case-insensitively against the cached titles. An empty
// query returns every item.
func (h *History) Filter(query string) []Summary {
	return FilterSummaries(h.Items(), query)
}

func FilterSummaries(items []Summary, query string) []Summary {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items
	}
	ret := []Summary{}
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Title), query) {
			ret = append(ret, item)
		}
	}
	return ret
}

// Remove drops a conversation from the cached list without a backend call,
// so a deleted conversation disappears even when the next refresh fails.
func (h *History) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	items := h.items[:0:0]
	for _, item := range h.items {
		if item.ID != id {
			items = append(items, item)
		}
	}
	h.items = items
}

package orchestration

import (
	"sync"

	"github.com/jinzhu/copier"

	"github.com/overtone-ai/overtone-core/core/llms"
)

// conversationHistory is the append-only record of the session. Only the
// orchestrator's run loop appends; everyone else reads snapshots.
type conversationHistory struct {
	mu      sync.RWMutex
	entries []llms.Entry
}

func newConversationHistory() *conversationHistory {
	return &conversationHistory{}
}

func (h *conversationHistory) Append(entries ...llms.Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entries...)
}

// Snapshot returns a deep copy so readers cannot observe or cause mutation.
func (h *conversationHistory) Snapshot() []llms.Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.entries) == 0 {
		return nil
	}

	var snapshot []llms.Entry
	if err := copier.CopyWithOption(&snapshot, h.entries, copier.Option{DeepCopy: true}); err != nil {
		logger.Warn("Failed to deep copy conversation history", "error", err)
		snapshot = append([]llms.Entry(nil), h.entries...)
	}
	return snapshot
}

func (h *conversationHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

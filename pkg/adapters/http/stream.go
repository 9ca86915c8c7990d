package http

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/twsgraph/internal/logging"
	"github.com/aretw0/twsgraph/pkg/domain"
)

// EventType names a workspace change pushed to SSE subscribers.
type EventType string

const (
	// EventDataset is published after auxiliary data was appended.
	EventDataset EventType = "dataset"
	// EventGraph is published after the workspace graph was (re)built.
	EventGraph EventType = "graph"
)

// Event is the payload of one SSE message.
type Event struct {
	Type    EventType      `json:"type"`
	Summary domain.Summary `json:"summary,omitzero"`
	Nodes   int            `json:"nodes,omitempty"`
	Links   int            `json:"links,omitempty"`
}

func graphEvent(g *domain.Graph) Event {
	return Event{Type: EventGraph, Nodes: len(g.Nodes), Links: len(g.Links)}
}

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // WorkspaceID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates a StreamManager. A nil logger discards.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a channel for the events of a workspace. The returned
// function unregisters and closes it.
func (sm *StreamManager) Subscribe(workspaceID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[workspaceID]; !ok {
		sm.subscribers[workspaceID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[workspaceID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[workspaceID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, workspaceID)
			}
		}
	}
}

// Publish encodes e and broadcasts it.
func (sm *StreamManager) Publish(workspaceID string, e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		sm.logger.Error("StreamManager: encode failed", "err", err)
		return
	}
	sm.Broadcast(workspaceID, string(data))
}

// Broadcast sends msg to every subscriber of a workspace without blocking.
func (sm *StreamManager) Broadcast(workspaceID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[workspaceID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "workspace_id", workspaceID)
		}
	}
}

// Subscribers returns the number of open subscriptions of a workspace.
func (sm *StreamManager) Subscribers(workspaceID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[workspaceID])
}

package checkpoint

import (
	"context"
	"sync"

	"github.com/mohammad-safakhou/scholar/internal/workflow"
)

// MemoryStore keeps snapshots in process memory. It is the default
// backend and the one tests use; state does not survive a restart.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]workflow.State
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]workflow.State)}
}

func (m *MemoryStore) Save(ctx context.Context, id string, state workflow.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	state.RawResults = append([]workflow.ResearchResult(nil), state.RawResults...)
	m.snapshots[id] = state
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, id string) (workflow.State, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.snapshots[id]
	if !ok {
		return workflow.State{}, false, nil
	}
	st.RawResults = append([]workflow.ResearchResult(nil), st.RawResults...)
	return st, true, nil
}

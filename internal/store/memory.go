package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mailflow/mailflow/pkg/schema"
)

// MemoryStore is a mutex-guarded in-memory Store used by tests and the
// dry-run tooling. Records are deep-copied on the way in and out so callers
// cannot mutate stored state.
type MemoryStore struct {
	mu         sync.RWMutex
	workflows  map[string]*Workflow
	executions map[string]*Execution
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		workflows:  make(map[string]*Workflow),
		executions: make(map[string]*Execution),
	}
}

func (s *MemoryStore) CreateWorkflow(_ context.Context, wf *Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.workflows[wf.ID]; exists {
		return storeConflict("workflow", wf.ID)
	}
	cp := *wf
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	cp.UpdatedAt = cp.CreatedAt
	s.workflows[wf.ID] = &cp
	return nil
}

func (s *MemoryStore) GetWorkflow(_ context.Context, id string) (*Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wf, ok := s.workflows[id]
	if !ok {
		return nil, storeNotFound("workflow", id)
	}
	cp := *wf
	return &cp, nil
}

func (s *MemoryStore) UpdateWorkflow(_ context.Context, wf *Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.workflows[wf.ID]
	if !ok {
		return storeNotFound("workflow", wf.ID)
	}
	cp := *wf
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now().UTC()
	s.workflows[wf.ID] = &cp
	return nil
}

func (s *MemoryStore) DeleteWorkflow(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[id]; !ok {
		return storeNotFound("workflow", id)
	}
	delete(s.workflows, id)
	return nil
}

func (s *MemoryStore) ListEnabledWorkflows(_ context.Context, userID, connectionID string) ([]*Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Workflow
	for _, wf := range s.workflows {
		if wf.Active && wf.UserID == userID && wf.ConnectionID == connectionID {
			cp := *wf
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ListActiveWorkflows(_ context.Context) ([]*Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Workflow
	for _, wf := range s.workflows {
		if wf.Active {
			cp := *wf
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CreateExecution(_ context.Context, ex *Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.executions[ex.ID]; exists {
		return storeConflict("execution", ex.ID)
	}
	cp := copyExecution(ex)
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.executions[ex.ID] = cp
	return nil
}

func (s *MemoryStore) GetExecution(_ context.Context, id string) (*Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ex, ok := s.executions[id]
	if !ok {
		return nil, storeNotFound("execution", id)
	}
	return copyExecution(ex), nil
}

func (s *MemoryStore) UpdateExecution(_ context.Context, id string, update ExecutionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ex, ok := s.executions[id]
	if !ok {
		return storeNotFound("execution", id)
	}
	if update.Status != nil {
		ex.Status = *update.Status
	}
	if update.NodeResults != nil {
		ex.NodeResults = copyResults(update.NodeResults)
	}
	if update.Error != nil {
		ex.Error = *update.Error
	}
	if update.StartedAt != nil {
		t := *update.StartedAt
		ex.StartedAt = &t
	}
	if update.CompletedAt != nil {
		t := *update.CompletedAt
		ex.CompletedAt = &t
	}
	return nil
}

func (s *MemoryStore) ListExecutions(_ context.Context, filter ExecutionFilter) ([]*Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Execution
	for _, ex := range s.executions {
		if filter.WorkflowID != "" && ex.WorkflowID != filter.WorkflowID {
			continue
		}
		if filter.Status != nil && ex.Status != *filter.Status {
			continue
		}
		out = append(out, copyExecution(ex))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func copyExecution(ex *Execution) *Execution {
	cp := *ex
	cp.NodeResults = copyResults(ex.NodeResults)
	return &cp
}

func copyResults(results map[string]*schema.NodeResult) map[string]*schema.NodeResult {
	if results == nil {
		return nil
	}
	out := make(map[string]*schema.NodeResult, len(results))
	for id, r := range results {
		cp := *r
		out[id] = &cp
	}
	return out
}

func storeConflict(kind, id string) error {
	return schema.NewErrorf(schema.ErrCodeConflict, "%s already exists: %s", kind, id)
}

package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/mkovacev/gridplan/internal/planner/core"
)

// InMemoryPlanStore keeps plans in process memory. Listings are ordered by
// creation time (newest first) so output is stable across calls.
type InMemoryPlanStore struct {
	mu    sync.RWMutex
	plans map[uuid.UUID]*core.Plan
}

func NewInMemoryPlanStore() *InMemoryPlanStore {
	return &InMemoryPlanStore{
		plans: make(map[uuid.UUID]*core.Plan),
	}
}

func (s *InMemoryPlanStore) SavePlan(plan *core.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.plans[plan.ID]; exists {
		return fmt.Errorf("plan %s already exists", plan.ID)
	}
	s.plans[plan.ID] = plan
	return nil
}

func (s *InMemoryPlanStore) UpdatePlan(plan *core.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.plans[plan.ID]; !exists {
		return fmt.Errorf("plan %s not found", plan.ID)
	}
	s.plans[plan.ID] = plan
	return nil
}

func (s *InMemoryPlanStore) GetPlanByID(id uuid.UUID) (*core.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plan, exists := s.plans[id]
	if !exists {
		return nil, nil
	}
	return plan, nil
}

func (s *InMemoryPlanStore) GetPlans(filter core.PlanFilter) ([]*core.Plan, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*core.Plan, 0, len(s.plans))
	for _, plan := range s.plans {
		if filter.Status != nil && plan.Status != *filter.Status {
			continue
		}
		matched = append(matched, plan)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := min(filter.Offset, total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	return matched[start:end], total, nil
}

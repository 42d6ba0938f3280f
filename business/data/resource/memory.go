package resource

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in memory resource store.
type Memory struct {
	mu        sync.RWMutex
	resources map[int64]Resource
}

// NewMemory constructs an empty in memory store.
func NewMemory() *Memory {
	return &Memory{
		resources: make(map[int64]Resource),
	}
}

// Close implements the Storer interface.
func (m *Memory) Close() error {
	return nil
}

// Create adds a new resource.
func (m *Memory) Create(ctx context.Context, res Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.resources[res.CityID]; exists {
		return fmt.Errorf("city[%d]: %w", res.CityID, ErrExists)
	}

	m.resources[res.CityID] = res
	return nil
}

// UpsertResourceAllocation replaces the allocation and risk level of an
// existing city and stamps the allocation date.
func (m *Memory) UpsertResourceAllocation(ctx context.Context, cityID int64, allocated int, riskLevel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, exists := m.resources[cityID]
	if !exists {
		return fmt.Errorf("city[%d]: %w", cityID, ErrNotFound)
	}

	res.Allocated = allocated
	res.RiskLevel = riskLevel
	res.AllocationDate = today()
	m.resources[cityID] = res

	return nil
}

// QueryByID returns the resource for the city.
func (m *Memory) QueryByID(ctx context.Context, cityID int64) (Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res, exists := m.resources[cityID]
	if !exists {
		return Resource{}, fmt.Errorf("city[%d]: %w", cityID, ErrNotFound)
	}

	return res, nil
}

// Query returns every resource ordered by city id.
func (m *Memory) Query(ctx context.Context) ([]Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	resources := make([]Resource, 0, len(m.resources))
	for _, res := range m.resources {
		resources = append(resources, res)
	}

	sort.Slice(resources, func(i, j int) bool {
		return resources[i].CityID < resources[j].CityID
	})

	return resources, nil
}

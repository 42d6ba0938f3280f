// Package resource provides the store of disaster resource allocations per
// city that the update_resource_allocation contract writes to.
package resource

import (
	"context"
	"errors"
	"time"
)

// Set of error variables for the resource store.
var (
	ErrNotFound = errors.New("resource not found")
	ErrExists   = errors.New("resource already exists")
)

// dateLayout is the layout of the allocation date.
const dateLayout = "2006-01-02"

// Resource represents the resources allocated to a city.
type Resource struct {
	CityID         int64  `json:"city_id"`
	CityName       string `json:"city_name"`
	ResourceType   string `json:"resource_type"`
	Allocated      int    `json:"resources_allocated"`
	AllocationDate string `json:"allocation_date"`
	RiskLevel      string `json:"disaster_risk_level"`
}

// Storer represents the behavior of a resource store.
type Storer interface {
	Create(ctx context.Context, res Resource) error
	UpsertResourceAllocation(ctx context.Context, cityID int64, allocated int, riskLevel string) error
	QueryByID(ctx context.Context, cityID int64) (Resource, error)
	Query(ctx context.Context) ([]Resource, error)
	Close() error
}

// Samples is the set of cities seeded into an empty store.
var Samples = []Resource{
	{CityID: 1, CityName: "New York", ResourceType: "Emergency Vehicles", Allocated: 300, AllocationDate: "2024-01-15", RiskLevel: "High"},
	{CityID: 2, CityName: "Los Angeles", ResourceType: "Medical Supplies", Allocated: 200, AllocationDate: "2024-01-20", RiskLevel: "Medium"},
	{CityID: 3, CityName: "Chicago", ResourceType: "Food Packages", Allocated: 200, AllocationDate: "2024-02-01", RiskLevel: "Medium"},
	{CityID: 4, CityName: "Houston", ResourceType: "Water Purification Units", Allocated: 100, AllocationDate: "2024-02-10", RiskLevel: "Low"},
	{CityID: 5, CityName: "Miami", ResourceType: "Evacuation Buses", Allocated: 400, AllocationDate: "2024-01-25", RiskLevel: "Very High"},
	{CityID: 6, CityName: "San Francisco", ResourceType: "Emergency Shelters", Allocated: 300, AllocationDate: "2024-02-05", RiskLevel: "High"},
	{CityID: 7, CityName: "Seattle", ResourceType: "Communication Equipment", Allocated: 200, AllocationDate: "2024-01-30", RiskLevel: "Medium"},
	{CityID: 8, CityName: "Denver", ResourceType: "Rescue Helicopters", Allocated: 200, AllocationDate: "2024-02-15", RiskLevel: "Medium"},
	{CityID: 9, CityName: "Phoenix", ResourceType: "Fire Trucks", Allocated: 300, AllocationDate: "2024-01-18", RiskLevel: "High"},
	{CityID: 10, CityName: "Boston", ResourceType: "Emergency Personnel", Allocated: 200, AllocationDate: "2024-02-08", RiskLevel: "Medium"},
}

// Seed adds the sample cities to the store when it holds no resources. It
// returns the number of resources added.
func Seed(ctx context.Context, store Storer) (int, error) {
	existing, err := store.Query(ctx)
	if err != nil {
		return 0, err
	}

	if len(existing) > 0 {
		return 0, nil
	}

	for _, res := range Samples {
		if err := store.Create(ctx, res); err != nil {
			return 0, err
		}
	}

	return len(Samples), nil
}

// today returns the allocation date for an update made now.
func today() string {
	return time.Now().UTC().Format(dateLayout)
}

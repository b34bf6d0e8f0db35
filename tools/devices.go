package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// DeviceParam describes one configurable parameter of a device type.
type DeviceParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// DeviceType describes one optimizable device class.
type DeviceType struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Parameters  []DeviceParam `json:"parameters"`
}

// OptimizationConfig is one stored optimization configuration.
type OptimizationConfig struct {
	DeviceType string         `json:"device_type"`
	Label      string         `json:"label"`
	Settings   map[string]any `json:"settings"`
}

// Catalog holds the device types and optimization configurations the
// assistant can consult. The embedding application populates it at
// startup; the tools below expose it to the model.
type Catalog struct {
	mu      sync.RWMutex
	types   []DeviceType
	configs []OptimizationConfig
}

// NewCatalog creates a catalog with the given device types.
func NewCatalog(types ...DeviceType) *Catalog {
	return &Catalog{types: types}
}

// DefaultCatalog returns the standard device-type catalog.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		DeviceType{
			Name:        "battery",
			Description: "Stationary storage battery charged from surplus generation",
			Parameters: []DeviceParam{
				{Name: "capacity_kwh", Type: "number", Description: "Usable capacity in kWh", Required: true},
				{Name: "max_charge_kw", Type: "number", Description: "Maximum charge power in kW", Required: true},
				{Name: "min_soc_pct", Type: "number", Description: "Reserve state of charge, percent", Required: false},
			},
		},
		DeviceType{
			Name:        "inverter",
			Description: "Hybrid inverter coupling generation, storage and the grid",
			Parameters: []DeviceParam{
				{Name: "rated_kw", Type: "number", Description: "Rated output power in kW", Required: true},
				{Name: "export_limit_kw", Type: "number", Description: "Grid export limit in kW", Required: false},
			},
		},
		DeviceType{
			Name:        "solar_array",
			Description: "Photovoltaic array feeding the installation",
			Parameters: []DeviceParam{
				{Name: "peak_kw", Type: "number", Description: "Peak generation in kW", Required: true},
				{Name: "orientation", Type: "string", Description: "Cardinal orientation of the array", Required: false},
			},
		},
		DeviceType{
			Name:        "ev_charger",
			Description: "Electric vehicle charge point with schedulable sessions",
			Parameters: []DeviceParam{
				{Name: "max_kw", Type: "number", Description: "Maximum charge power in kW", Required: true},
				{Name: "ready_by", Type: "string", Description: "Time the vehicle must be charged by", Required: false},
			},
		},
	)
}

// AddConfig records an optimization configuration.
func (c *Catalog) AddConfig(cfg OptimizationConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configs = append(c.configs, cfg)
}

// deviceTypesParams is empty: the listing takes no arguments.
type deviceTypesParams struct{}

type optimizationConfigsParams struct {
	DeviceType string `json:"device_type,omitempty" description:"Restrict results to one device type"`
}

// DeviceTypesTool lists the available device types and the parameters
// each one needs configured.
func (c *Catalog) DeviceTypesTool() Tool {
	return NewFunc("get_available_device_types",
		"List the available device types and the parameters each type requires for optimization",
		func(ctx context.Context, _ deviceTypesParams) (string, error) {
			c.mu.RLock()
			defer c.mu.RUnlock()
			out, err := json.Marshal(c.types)
			if err != nil {
				return "", fmt.Errorf("encode device types: %w", err)
			}
			return string(out), nil
		})
}

// OptimizationConfigsTool returns the stored optimization
// configurations, optionally filtered by device type.
func (c *Catalog) OptimizationConfigsTool() Tool {
	return NewFunc("get_optimization_configs",
		"Return the user's current optimization configurations, optionally filtered by device type",
		func(ctx context.Context, p optimizationConfigsParams) (string, error) {
			c.mu.RLock()
			defer c.mu.RUnlock()

			configs := c.configs
			if p.DeviceType != "" {
				configs = nil
				for _, cfg := range c.configs {
					if strings.EqualFold(cfg.DeviceType, p.DeviceType) {
						configs = append(configs, cfg)
					}
				}
			}
			if len(configs) == 0 {
				return "No optimization configurations found.", nil
			}
			out, err := json.Marshal(configs)
			if err != nil {
				return "", fmt.Errorf("encode configurations: %w", err)
			}
			return string(out), nil
		})
}

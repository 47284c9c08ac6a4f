// Package adapters wires the built-in site adapters into a registry.
package adapters

import (
	"jobmate/harvester-service/internal/adapters/jsonfeed"
	"jobmate/harvester-service/internal/adapters/recruitee"
	"jobmate/harvester-service/internal/adapters/workday"
	"jobmate/harvester-service/internal/scraper"
)

// NewRegistry returns a registry with every built-in adapter registered.
func NewRegistry() *scraper.Registry {
	reg := scraper.NewRegistry()
	reg.Register(workday.Kind, workday.New)
	reg.Register(recruitee.Kind, recruitee.New)
	reg.Register(jsonfeed.Kind, jsonfeed.New)
	return reg
}

package admin

import (
	"slices"

	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/driver"
)

// Capabilities is a read-only snapshot of the features a connected driver offers.
// It is taken once per Session and never changes afterwards.
type Capabilities struct {
	driver   string
	features map[core.Feature]struct{}
}

// NewCapabilities records which of core.AllFeatures d supports.
func NewCapabilities(d driver.Identity) *Capabilities {
	c := &Capabilities{
		driver:   d.Name(),
		features: make(map[core.Feature]struct{}),
	}
	for _, f := range core.AllFeatures {
		if d.Supports(f) {
			c.features[f] = struct{}{}
		}
	}
	return c
}

// Supports reports whether feature is available.
func (c *Capabilities) Supports(feature string) bool {
	if c == nil {
		return false
	}
	_, ok := c.features[core.Feature(feature)]
	return ok
}

// Require returns a *core.CapabilityError when feature is not available.
func (c *Capabilities) Require(feature string) error {
	if c.Supports(feature) {
		return nil
	}
	name := ""
	if c != nil {
		name = c.driver
	}
	return &core.CapabilityError{Feature: core.Feature(feature), Driver: name}
}

// List returns the supported features sorted by name.
func (c *Capabilities) List() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.features))
	for f := range c.features {
		out = append(out, string(f))
	}
	slices.Sort(out)
	return out
}

// Driver returns the display name of the engine the snapshot was taken from.
func (c *Capabilities) Driver() string {
	if c == nil {
		return ""
	}
	return c.driver
}

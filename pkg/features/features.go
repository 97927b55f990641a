// Package features tracks which runtime feature gates are active.
//
// Gates coordinate the activation of breaking changes to invocation
// semantics, such as the instruction size limits applied to CPI.
package features

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// Features maps active gate addresses to the slot they were activated at.
type Features struct {
	enabled map[[32]byte]uint64
}

func NewFeaturesDefault() *Features {
	return &Features{enabled: make(map[[32]byte]uint64)}
}

// NewFeaturesAllEnabled returns a set with every known gate active from
// slot 0.
func NewFeaturesAllEnabled() *Features {
	f := NewFeaturesDefault()
	for _, gate := range AllGates {
		f.EnableFeature(gate, 0)
	}
	return f
}

func (f *Features) EnableFeature(gate FeatureGate, slot uint64) {
	f.enabled[gate.Address] = slot
}

func (f *Features) DisableFeature(gate FeatureGate) {
	delete(f.enabled, gate.Address)
}

func (f *Features) IsActive(gate FeatureGate) bool {
	if f == nil {
		return false
	}
	_, ok := f.enabled[gate.Address]
	return ok
}

// ActivationSlot returns the slot a gate was activated at.
func (f *Features) ActivationSlot(gate FeatureGate) (uint64, bool) {
	slot, ok := f.enabled[gate.Address]
	return slot, ok
}

func (f *Features) Clone() *Features {
	c := NewFeaturesDefault()
	for addr, slot := range f.enabled {
		c.enabled[addr] = slot
	}
	return c
}

// AllEnabled describes every active gate, in registration order.
func (f *Features) AllEnabled() []string {
	var out []string
	for _, gate := range AllGates {
		if f.IsActive(gate) {
			out = append(out, fmt.Sprintf("feature %s (%s) enabled", gate.Name, base58.Encode(gate.Address[:])))
		}
	}
	return out
}

// Package services - Planner configuration
package services

import (
	"runtime"
	"time"
)

// Config carries the tunable knobs of the route planning core
type Config struct {
	// MaxEdgeDistanceNM caps direct edges in the shipping graph
	MaxEdgeDistanceNM float64

	// MaxAlternatives bounds alternative routes returned by default
	MaxAlternatives int

	// CalculationTimeout caps a single route calculation
	CalculationTimeout time.Duration

	// RouteCacheCapacity bounds the in-process route cache
	RouteCacheCapacity int

	// RouteTTL / PortTTL are the shared-cache lifetimes
	RouteTTL time.Duration
	PortTTL  time.Duration

	// DirectSafetyMargin requires direct distance <= margin * max range
	DirectSafetyMargin float64

	// HubDetourCap accepts single-hub candidates up to cap * direct distance
	HubDetourCap float64

	// PenaltyFactor multiplies discouraged edge weights in alternative search
	PenaltyFactor float64

	// FuelPriceUSDPerTon prices bunker fuel for segment costing
	FuelPriceUSDPerTon float64

	// WorkerCount sizes the candidate materialization pool
	WorkerCount int
}

// DefaultConfig returns production defaults
func DefaultConfig() Config {
	return Config{
		MaxEdgeDistanceNM:  5000,
		MaxAlternatives:    5,
		CalculationTimeout: 30 * time.Second,
		RouteCacheCapacity: 1000,
		RouteTTL:           30 * time.Minute,
		PortTTL:            24 * time.Hour,
		DirectSafetyMargin: 0.9,
		HubDetourCap:       1.2,
		PenaltyFactor:      2.0,
		FuelPriceUSDPerTon: 600,
		WorkerCount:        runtime.NumCPU() * 2,
	}
}

// normalized fills zero values with defaults so partially-populated
// configs behave sensibly in tests
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.MaxEdgeDistanceNM <= 0 {
		c.MaxEdgeDistanceNM = def.MaxEdgeDistanceNM
	}
	if c.MaxAlternatives <= 0 {
		c.MaxAlternatives = def.MaxAlternatives
	}
	if c.CalculationTimeout <= 0 {
		c.CalculationTimeout = def.CalculationTimeout
	}
	if c.RouteCacheCapacity <= 0 {
		c.RouteCacheCapacity = def.RouteCacheCapacity
	}
	if c.RouteTTL <= 0 {
		c.RouteTTL = def.RouteTTL
	}
	if c.PortTTL <= 0 {
		c.PortTTL = def.PortTTL
	}
	if c.DirectSafetyMargin <= 0 {
		c.DirectSafetyMargin = def.DirectSafetyMargin
	}
	if c.HubDetourCap <= 0 {
		c.HubDetourCap = def.HubDetourCap
	}
	if c.PenaltyFactor <= 0 {
		c.PenaltyFactor = def.PenaltyFactor
	}
	if c.FuelPriceUSDPerTon <= 0 {
		c.FuelPriceUSDPerTon = def.FuelPriceUSDPerTon
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = def.WorkerCount
	}
	return c
}

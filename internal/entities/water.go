// Package entities contains the core domain objects for the morocco-water application
package entities

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// Criticality grades how alarming a national indicator is
type Criticality string

const (
	CriticalityReference Criticality = "reference"
	CriticalityLow       Criticality = "low"
	CriticalityMedium    Criticality = "medium"
	CriticalityHigh      Criticality = "high"
	CriticalityCritical  Criticality = "critical"
)

// Valid reports whether c is a known criticality
func (c Criticality) Valid() bool {
	switch c {
	case CriticalityReference, CriticalityLow, CriticalityMedium, CriticalityHigh, CriticalityCritical:
		return true
	}
	return false
}

// PerformanceStatus describes how a dam is performing against its capacity
type PerformanceStatus string

const (
	PerformanceCritical  PerformanceStatus = "critical"
	PerformancePoor      PerformanceStatus = "poor"
	PerformanceGood      PerformanceStatus = "good"
	PerformanceExcellent PerformanceStatus = "excellent"
)

// Valid reports whether s is a known performance status
func (s PerformanceStatus) Valid() bool {
	switch s {
	case PerformanceCritical, PerformancePoor, PerformanceGood, PerformanceExcellent:
		return true
	}
	return false
}

// Priority ranks a basin for atmospheric water generator deployment
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Relevance describes how an investment relates to the AWG market
type Relevance string

const (
	RelevanceMedium            Relevance = "medium"
	RelevanceHigh              Relevance = "high"
	RelevanceCompetitiveThreat Relevance = "competitive_threat"
)

// Valid reports whether r is a known relevance
func (r Relevance) Valid() bool {
	switch r {
	case RelevanceMedium, RelevanceHigh, RelevanceCompetitiveThreat:
		return true
	}
	return false
}

// StressLevel is the national water stress classification for a year
type StressLevel string

const (
	StressNone     StressLevel = "none"
	StressLow      StressLevel = "low"
	StressHigh     StressLevel = "high"
	StressCritical StressLevel = "critical"
)

// Valid reports whether l is a known stress level
func (l StressLevel) Valid() bool {
	switch l {
	case StressNone, StressLow, StressHigh, StressCritical:
		return true
	}
	return false
}

// RowKind tags a regional dam row as a real basin or a synthetic aggregate
type RowKind int

const (
	RowRegion RowKind = iota
	RowAggregate
)

// NationalMetric is one named national water statistic
type NationalMetric struct {
	Metric      string      // Lookup key, unique within the table
	Value       float64     // Statistic value in Unit
	Unit        string      // e.g. percent, billion_m3, m3_per_capita
	Year        int         // Reference year of the figure
	Source      string      // Publishing body
	Criticality Criticality // How alarming the figure is
}

// RegionalDam is the performance of one basin's dams
type RegionalDam struct {
	BasinName              string            // Unique basin identifier
	Kind                   RowKind           // Region or synthetic aggregate
	FillingRatePercent     float64           // Current reservoir filling, 0-100
	CapacityMillionM3      sql.NullFloat64   // Reservoir capacity, null when unknown
	PerformanceStatus      PerformanceStatus // Qualitative performance
	PriorityForAWG         Priority          // Deployment priority
	MarketOpportunityScore int               // Derived from FillingRatePercent
}

// IsAggregate reports whether the row summarises other rows instead of describing a basin
func (d RegionalDam) IsAggregate() bool {
	return d.Kind == RowAggregate
}

// InvestmentRecord is a government programme's water investment
type InvestmentRecord struct {
	Agency               string              // Investing body
	InvestmentMillionUSD decimal.NullDecimal // Null when not applicable
	Purpose              string              // What the money is for
	TargetProductionBCM  sql.NullFloat64     // Null when not applicable
	Relevance            Relevance           // Relation to the AWG market
}

// TrendPoint is a single year of the water availability series
type TrendPoint struct {
	Year               int
	PerCapitaM3        float64
	PopulationMillions float64 // Estimated
	WaterStressLevel   StressLevel
}

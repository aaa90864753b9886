// Package strategy defines the pluggable pricing strategies of the quote
// engine and the value types they exchange.
package strategy

// StrategyType groups strategies that are interchangeable with each other
type StrategyType string

// StrategyTypeCosting covers strategies that price a cut piece against its stock bar
const StrategyTypeCosting StrategyType = "costing"

func (t StrategyType) String() string {
	return string(t)
}

// Strategy describes a registered strategy
type Strategy interface {
	Name() string
	Type() StrategyType
	Description() string
}

// BaseStrategy carries the descriptive fields of a Strategy and is meant
// to be embedded by implementations
type BaseStrategy struct {
	name         string
	strategyType StrategyType
	description  string
}

// NewBaseStrategy creates a BaseStrategy
func NewBaseStrategy(name string, strategyType StrategyType, description string) BaseStrategy {
	return BaseStrategy{name: name, strategyType: strategyType, description: description}
}

// Name returns the strategy's unique name, e.g. "hybrid"
func (s BaseStrategy) Name() string { return s.name }

// Type returns the strategy's group
func (s BaseStrategy) Type() StrategyType { return s.strategyType }

// Description returns a one-line human readable summary
func (s BaseStrategy) Description() string { return s.description }

package measure

import (
	"sync"
)

// DefaultMeasure keeps the metrics in memory.
type DefaultMeasure struct {
	mu     sync.RWMutex
	Stages map[string]Metric
}

func NewDefaultMeasure() *DefaultMeasure {
	return &DefaultMeasure{
		Stages: make(map[string]Metric),
	}
}

func (m *DefaultMeasure) AddMetric(name string) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()
	mt := &DefaultMetric{
		allTransports: make(map[string]*TransportInfo),
	}
	m.Stages[name] = mt

	return mt
}

// GetMetric returns nil for an unknown stage.
func (m *DefaultMeasure) GetMetric(name string) Metric {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mt, ok := m.Stages[name]
	if !ok {
		return nil
	}

	return mt
}

func (m *DefaultMeasure) AllMetrics() map[string]Metric {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Metric, len(m.Stages))
	for name, mt := range m.Stages {
		out[name] = mt
	}

	return out
}

var _ Measure = (*DefaultMeasure)(nil)

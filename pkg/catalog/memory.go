package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/paulmach/orb"

	"github.com/jcristia/CGA/pkg/geo"
)

// Memory is an in-process catalog. Datasets are listed in insertion order.
type Memory struct {
	mu     sync.RWMutex
	crs    geo.CRS
	order  []string
	layers map[string][]RawFeature
}

// NewMemory returns an empty catalog whose datasets are all in crs.
func NewMemory(crs geo.CRS) *Memory {
	return &Memory{crs: crs, layers: make(map[string][]RawFeature)}
}

// Add registers or replaces a dataset.
func (m *Memory) Add(dataset string, features ...RawFeature) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.layers[dataset]; !ok {
		m.order = append(m.order, dataset)
	}
	m.layers[dataset] = features
	return m
}

// Feature is a helper for building RawFeatures from key/value pairs.
func Feature(g orb.Geometry, kv ...interface{}) RawFeature {
	props := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		props[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return RawFeature{Geometry: g, Properties: props}
}

func (m *Memory) List(ctx context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]Entry, 0, len(m.order))
	for _, name := range m.order {
		entries = append(entries, Entry{Dataset: name, CRS: m.crs})
	}
	return entries, ctx.Err()
}

func (m *Memory) Open(ctx context.Context, dataset string) (*Layer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	feats, ok := m.layers[dataset]
	if !ok {
		return nil, fmt.Errorf("%s: %w", dataset, ErrNotFound)
	}
	return &Layer{
		Dataset:  dataset,
		CRS:      m.crs,
		Features: append([]RawFeature(nil), feats...),
	}, nil
}

// Package store holds a graph store keeping vertices and edges in insertion order.
package store

import (
	"sync"

	"github.com/dominikbraun/graph"
	orderedmap "github.com/wk8/go-ordered-map"
)

type vertex[T any] struct {
	value      T
	properties *graph.VertexProperties
}

// OrderedStore is an in-memory graph.Store listing vertices and edges in the order they were added.
type OrderedStore[K comparable, T any] struct {
	lock     sync.RWMutex
	vertices *orderedmap.OrderedMap // K -> vertex[T]
	edges    *orderedmap.OrderedMap // K -> *orderedmap.OrderedMap of target K -> graph.Edge[K]
	inDegree map[K]int
}

// NewOrderedStore creates an empty store.
func NewOrderedStore[K comparable, T any]() *OrderedStore[K, T] {
	return &OrderedStore[K, T]{
		vertices: orderedmap.New(),
		edges:    orderedmap.New(),
		inDegree: make(map[K]int),
	}
}

func (s *OrderedStore[K, T]) AddVertex(k K, t T, p graph.VertexProperties) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.vertices.Get(k); ok {
		return graph.ErrVertexAlreadyExists
	}
	s.vertices.Set(k, vertex[T]{value: t, properties: &p})

	return nil
}

// Vertex returns the vertex k. Its attributes map is shared with the store.
func (s *OrderedStore[K, T]) Vertex(k K) (T, graph.VertexProperties, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	v, ok := s.vertices.Get(k)
	if !ok {
		var zero T
		return zero, graph.VertexProperties{}, graph.ErrVertexNotFound
	}
	vx := v.(vertex[T])

	return vx.value, *vx.properties, nil
}

func (s *OrderedStore[K, T]) RemoveVertex(k K) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.vertices.Get(k); !ok {
		return graph.ErrVertexNotFound
	}
	if s.inDegree[k] > 0 {
		return graph.ErrVertexHasEdges
	}
	if out, ok := s.edges.Get(k); ok && out.(*orderedmap.OrderedMap).Len() > 0 {
		return graph.ErrVertexHasEdges
	}

	s.edges.Delete(k)
	delete(s.inDegree, k)
	s.vertices.Delete(k)

	return nil
}

// ListVertices returns the vertex hashes in insertion order.
func (s *OrderedStore[K, T]) ListVertices() ([]K, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	hashes := make([]K, 0, s.vertices.Len())
	for pair := s.vertices.Oldest(); pair != nil; pair = pair.Next() {
		hashes = append(hashes, pair.Key.(K))
	}

	return hashes, nil
}

func (s *OrderedStore[K, T]) VertexCount() (int, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.vertices.Len(), nil
}

func (s *OrderedStore[K, T]) AddEdge(sourceHash, targetHash K, edge graph.Edge[K]) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	out := s.outEdges(sourceHash, true)
	if _, ok := out.Get(targetHash); !ok {
		s.inDegree[targetHash]++
	}
	out.Set(targetHash, edge)

	return nil
}

func (s *OrderedStore[K, T]) UpdateEdge(sourceHash, targetHash K, edge graph.Edge[K]) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	out := s.outEdges(sourceHash, false)
	if out == nil {
		return graph.ErrEdgeNotFound
	}
	if _, ok := out.Get(targetHash); !ok {
		return graph.ErrEdgeNotFound
	}
	out.Set(targetHash, edge)

	return nil
}

func (s *OrderedStore[K, T]) RemoveEdge(sourceHash, targetHash K) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	out := s.outEdges(sourceHash, false)
	if out == nil {
		return nil
	}
	if _, ok := out.Delete(targetHash); ok {
		s.inDegree[targetHash]--
	}

	return nil
}

func (s *OrderedStore[K, T]) Edge(sourceHash, targetHash K) (graph.Edge[K], error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	out := s.outEdges(sourceHash, false)
	if out == nil {
		return graph.Edge[K]{}, graph.ErrEdgeNotFound
	}
	edge, ok := out.Get(targetHash)
	if !ok {
		return graph.Edge[K]{}, graph.ErrEdgeNotFound
	}

	return edge.(graph.Edge[K]), nil
}

// ListEdges returns the edges grouped by source vertex, sources and targets in insertion order.
func (s *OrderedStore[K, T]) ListEdges() ([]graph.Edge[K], error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	res := make([]graph.Edge[K], 0)
	for pair := s.vertices.Oldest(); pair != nil; pair = pair.Next() {
		res = append(res, s.listOut(pair.Key.(K))...)
	}

	return res, nil
}

// OutEdges returns the edges leaving k in insertion order.
func (s *OrderedStore[K, T]) OutEdges(k K) []graph.Edge[K] {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.listOut(k)
}

func (s *OrderedStore[K, T]) listOut(k K) []graph.Edge[K] {
	out := s.outEdges(k, false)
	if out == nil {
		return nil
	}

	res := make([]graph.Edge[K], 0, out.Len())
	for pair := out.Oldest(); pair != nil; pair = pair.Next() {
		res = append(res, pair.Value.(graph.Edge[K]))
	}

	return res
}

// outEdges must be called with the lock held.
func (s *OrderedStore[K, T]) outEdges(k K, create bool) *orderedmap.OrderedMap {
	out, ok := s.edges.Get(k)
	if ok {
		return out.(*orderedmap.OrderedMap)
	}
	if !create {
		return nil
	}
	m := orderedmap.New()
	s.edges.Set(k, m)

	return m
}

var _ graph.Store[string, string] = (*OrderedStore[string, string])(nil)

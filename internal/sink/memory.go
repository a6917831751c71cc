package sink

import (
	"context"
	"sync"

	internalerrors "github.com/Schera-ole/phonemetrics/internal/errors"
	models "github.com/Schera-ole/phonemetrics/internal/model"
)

// MemSink keeps published points in memory.
type MemSink struct {
	// mu provides thread-safe access to points
	mu sync.RWMutex

	points []models.Point
	closed bool
}

// NewMemSink creates an empty in-memory sink.
func NewMemSink() *MemSink {
	return &MemSink{}
}

// Publish appends point. It fails once the sink is closed.
func (ms *MemSink) Publish(ctx context.Context, point models.Point) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.closed {
		return internalerrors.ErrSinkClosed
	}
	ms.points = append(ms.points, point)
	return nil
}

// Points returns a copy of the published points in publish order.
func (ms *MemSink) Points() []models.Point {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	result := make([]models.Point, len(ms.points))
	copy(result, ms.points)
	return result
}

// Close marks the sink closed. Points stay readable.
func (ms *MemSink) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.closed = true
	return nil
}

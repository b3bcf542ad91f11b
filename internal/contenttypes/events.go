package contenttypes

import (
	"context"
	"sync"
)

// ChangeType identifies a content type lifecycle event.
type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// ChangeEvent is broadcast after a content type is stored or removed.
// Previous is nil for creations.
type ChangeEvent struct {
	Type        ChangeType
	ContentType *ContentType
	Previous    *ContentType
}

// CultureWidened reports whether the type, or any of its properties, moved
// from invariant to culture variant.
func (e ChangeEvent) CultureWidened() bool {
	if e.Type != ChangeUpdated || e.Previous == nil || e.ContentType == nil {
		return false
	}
	if !e.Previous.Variation.VariesByCulture() && e.ContentType.Variation.VariesByCulture() {
		return true
	}
	return len(e.WidenedProperties()) > 0
}

// WidenedProperties lists property aliases that gained culture variance.
func (e ChangeEvent) WidenedProperties() []string {
	if e.Previous == nil || e.ContentType == nil {
		return nil
	}
	var out []string
	for _, prop := range e.ContentType.Properties {
		before, ok := e.Previous.Property(prop.Alias)
		if !ok {
			continue
		}
		if !before.Variation.VariesByCulture() && prop.Variation.VariesByCulture() {
			out = append(out, prop.Alias)
		}
	}
	return out
}

// VarianceChanged reports whether the type or a property variation changed.
func (e ChangeEvent) VarianceChanged() bool {
	if e.Previous == nil || e.ContentType == nil {
		return false
	}
	if e.Previous.Variation != e.ContentType.Variation {
		return true
	}
	for _, prop := range e.ContentType.Properties {
		before, ok := e.Previous.Property(prop.Alias)
		if ok && before.Variation != prop.Variation {
			return true
		}
	}
	return false
}

type changeBroadcaster struct {
	mu       sync.Mutex
	watchers map[uint64]chan ChangeEvent
	nextID   uint64
}

func newChangeBroadcaster() *changeBroadcaster {
	return &changeBroadcaster{
		watchers: make(map[uint64]chan ChangeEvent),
	}
}

func (b *changeBroadcaster) Subscribe(ctx context.Context) <-chan ChangeEvent {
	if ctx == nil {
		ctx = context.Background()
	}
	ch := make(chan ChangeEvent, 8)
	if ctx.Err() != nil {
		close(ch)
		return ch
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.watchers[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.watchers, id)
		close(ch)
		b.mu.Unlock()
	}()

	return ch
}

// Broadcast never blocks; slow subscribers miss events.
func (b *changeBroadcaster) Broadcast(evt ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.watchers {
		select {
		case ch <- evt:
		default:
		}
	}
}

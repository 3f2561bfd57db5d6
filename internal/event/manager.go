package event

import (
	"go.uber.org/zap"
	"sync"
)

// Listener queues events for one callback. The queue is unbounded so emitting
// never waits on a slow callback.
type Listener struct {
	eventType Type

	mu     sync.Mutex
	queue  []interface{}
	closed bool
	wake   chan struct{}
}

func (l *Listener) push(msg interface{}) {
	l.mu.Lock()
	l.queue = append(l.queue, msg)
	l.mu.Unlock()

	l.signal()
}

func (l *Listener) close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	l.signal()
}

func (l *Listener) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// run delivers queued events in order until the listener is closed and drained.
func (l *Listener) run(callback func(msg interface{})) {
	for {
		l.mu.Lock()
		batch, closed := l.queue, l.closed
		l.queue = nil
		l.mu.Unlock()

		for _, msg := range batch {
			callback(msg)
		}

		if len(batch) == 0 {
			if closed {
				return
			}
			<-l.wake
		}
	}
}

// Manager fans events out to listeners. Each listener receives its events in
// emission order on its own goroutine.
type Manager struct {
	mu        sync.RWMutex
	listeners []*Listener
	closed    bool
	wg        sync.WaitGroup
}

func NewManager() *Manager {
	return &Manager{listeners: make([]*Listener, 0)}
}

func (m *Manager) AddEventListener(eventType Type, callback func(msg interface{})) {
	zap.L().With(zap.String("type", string(eventType))).Debug("EventManager: AddListener")

	listener := &Listener{
		eventType: eventType,
		wake:      make(chan struct{}, 1),
	}

	m.mu.Lock()
	m.listeners = append(m.listeners, listener)
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		listener.run(callback)
	}()
}

func (m *Manager) EmitEvent(eventType Type, msg interface{}) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		zap.L().With(zap.String("type", string(eventType))).Warn("EventManager: Emit after close")
		return
	}
	if len(m.listeners) == 0 {
		zap.L().Debug("No event listeners available")
	}

	for _, listener := range m.listeners {
		if listener.eventType == eventType {
			zap.L().With(zap.String("type", string(eventType))).Debug("EventManager: Emitting event")
			listener.push(msg)
		}
	}
}

// Close stops accepting events and waits for listeners to drain.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	for _, listener := range m.listeners {
		listener.close()
	}
	m.mu.Unlock()

	m.wg.Wait()
}

package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManager_DeliversInOrderPerListener(t *testing.T) {
	m := NewManager()

	var mu sync.Mutex
	received := make([]interface{}, 0)
	m.AddEventListener(NFTSoldEvent, func(msg interface{}) {
		mu.Lock()
		received = append(received, msg)
		mu.Unlock()
	})

	other := 0
	m.AddEventListener(NFTListedEvent, func(msg interface{}) {
		mu.Lock()
		other++
		mu.Unlock()
	})

	for i := 0; i < 100; i++ {
		m.EmitEvent(NFTSoldEvent, i)
	}
	m.Close()

	assert.Len(t, received, 100)
	for i, msg := range received {
		assert.Equal(t, i, msg)
	}
	assert.Zero(t, other)
}

func TestManager_EmitDoesNotWaitOnSlowListener(t *testing.T) {
	m := NewManager()

	release := make(chan struct{})
	var mu sync.Mutex
	received := make([]interface{}, 0)
	m.AddEventListener(NFTSoldEvent, func(msg interface{}) {
		<-release
		mu.Lock()
		received = append(received, msg)
		mu.Unlock()
	})

	emitted := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			m.EmitEvent(NFTSoldEvent, i)
		}
		close(emitted)
	}()

	select {
	case <-emitted:
	case <-time.After(5 * time.Second):
		t.Fatal("EmitEvent blocked on a slow listener")
	}

	close(release)
	m.Close()

	assert.Len(t, received, 1000)
	for i, msg := range received {
		assert.Equal(t, i, msg)
	}
}

func TestManager_EmitAfterCloseIsDropped(t *testing.T) {
	m := NewManager()

	calls := 0
	m.AddEventListener(NFTListedEvent, func(msg interface{}) {
		calls++
	})
	m.Close()
	m.Close()

	m.EmitEvent(NFTListedEvent, NFTListed{})
	assert.Zero(t, calls)
}

func TestTypes(t *testing.T) {
	assert.ElementsMatch(t, []Type{
		MarketplaceCreatedEvent,
		NFTListedEvent,
		NFTListingUpdatedEvent,
		NFTSoldEvent,
		NFTListingCanceledEvent,
	}, Types)
}

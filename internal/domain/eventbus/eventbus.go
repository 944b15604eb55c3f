package eventbus

import (
	"sync"

	evbus "github.com/asaskevich/EventBus"
)

// Topics published by the messaging gateway client and consumed by the
// session tracker. Payloads are documented per topic.
const (
	TopicQR            = "messaging.qr"            // args: qr payload string
	TopicAuthenticated = "messaging.authenticated" // args: none
	TopicReady         = "messaging.ready"         // args: none
	TopicDisconnected  = "messaging.disconnected"  // args: reason string
)

var (
	instance evbus.Bus
	once     sync.Once
)

// Get returns the process-wide event bus instance.
func Get() evbus.Bus {
	once.Do(func() {
		instance = New()
	})
	return instance
}

// New creates an independent bus, used by tests to avoid shared state.
func New() evbus.Bus {
	return evbus.New()
}

// Publish publishes an event on the process-wide bus.
func Publish(topic string, args ...interface{}) {
	Get().Publish(topic, args...)
}

// Subscribe registers a synchronous handler on the process-wide bus.
func Subscribe(topic string, fn interface{}) error {
	return Get().Subscribe(topic, fn)
}

package events

import (
	"testing"
	"time"
)

func TestBus_PublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus()
	first := bus.Subscribe()
	second := bus.Subscribe()

	bus.Publish(Event{Type: LoanCreated, ItemCode: "CAM-1", Quantity: 2})

	for _, sub := range []<-chan Event{first, second} {
		select {
		case event := <-sub:
			if event.Type != LoanCreated {
				t.Errorf("Expected event type %q, got %q", LoanCreated, event.Type)
			}
			if event.ItemCode != "CAM-1" {
				t.Errorf("Expected item code CAM-1, got %q", event.ItemCode)
			}
			if event.At.IsZero() {
				t.Error("Expected publish to stamp the event time")
			}
		case <-time.After(time.Second):
			t.Fatal("Subscriber did not receive the event")
		}
	}
}

func TestBus_PublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	bus := NewBus()
	bus.Subscribe() // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			bus.Publish(Event{Type: ItemDamaged})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	bus.Unsubscribe(sub)

	if _, ok := <-sub; ok {
		t.Error("Expected unsubscribed channel to be closed")
	}

	// Publishing after unsubscribe must not panic.
	bus.Publish(Event{Type: ItemRepaired})
}

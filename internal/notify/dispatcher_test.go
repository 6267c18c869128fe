// README: Dispatcher unit tests: fan-out, routing keys, best-effort delivery.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"rideflow/internal/modules/ride"
	"rideflow/internal/types"
)

type fakeSender struct {
	mu      sync.Mutex
	sends   map[types.ID][]json.RawMessage
	offline map[types.ID]bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{sends: make(map[types.ID][]json.RawMessage), offline: make(map[types.ID]bool)}
}

func (f *fakeSender) Send(recipientID types.ID, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline[recipientID] {
		return errors.New("not connected")
	}
	cp := make(json.RawMessage, len(payload))
	copy(cp, payload)
	f.sends[recipientID] = append(f.sends[recipientID], cp)
	return nil
}

func (f *fakeSender) received(recipientID types.ID) []json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sends[recipientID]
}

type fakeBus struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakeBus) Publish(_ context.Context, routingKey string, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, routingKey)
	return nil
}

func (f *fakeBus) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

func runDispatcher(t *testing.T, sender Sender, bus EventPublisher) *Dispatcher {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := NewDispatcher(sender, bus, log)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return d
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never held")
}

func testRide() *ride.Ride {
	return &ride.Ride{
		ID:            "ride-1",
		CustomerID:    "c1",
		Status:        ride.StatusRequested,
		Pickup:        types.Point{Lat: 40.7128, Lng: -74.0060},
		Dropoff:       types.Point{Lat: 40.7580, Lng: -73.9855},
		VehicleType:   "economy",
		EstimatedFare: 29.00,
		RequestedAt:   time.Now(),
	}
}

func TestRideRequestedFansOutToDrivers(t *testing.T) {
	sender := newFakeSender()
	bus := &fakeBus{}
	d := runDispatcher(t, sender, bus)

	d.RideRequested(testRide(), []types.ID{"d1", "d2"})

	waitFor(t, func() bool {
		return len(sender.received("d1")) == 1 && len(sender.received("d2")) == 1
	})

	var offer map[string]any
	if err := json.Unmarshal(sender.received("d1")[0], &offer); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if offer["type"] != "ride_offer" || offer["ride_id"] != "ride-1" {
		t.Fatalf("unexpected offer payload: %v", offer)
	}

	waitFor(t, func() bool { return len(bus.published()) == 1 })
	if keys := bus.published(); keys[0] != KeyRideRequested {
		t.Fatalf("routing key = %s, want %s", keys[0], KeyRideRequested)
	}
}

func TestTransitionReachesBothParties(t *testing.T) {
	sender := newFakeSender()
	bus := &fakeBus{}
	d := runDispatcher(t, sender, bus)

	r := testRide()
	driverID := types.ID("d1")
	r.DriverID = &driverID
	r.Status = ride.StatusAccepted

	d.RideTransition(ride.Transition{
		RideID:         r.ID,
		PreviousStatus: ride.StatusRequested,
		NewStatus:      ride.StatusAccepted,
		Ride:           r,
		At:             time.Now(),
	})

	waitFor(t, func() bool {
		return len(sender.received("c1")) == 1 && len(sender.received("d1")) == 1
	})
	waitFor(t, func() bool { return len(bus.published()) == 1 })
	if keys := bus.published(); keys[0] != KeyRideStatus {
		t.Fatalf("routing key = %s, want %s", keys[0], KeyRideStatus)
	}
}

func TestCompletionUsesCompletedKeyAndCarriesFare(t *testing.T) {
	sender := newFakeSender()
	bus := &fakeBus{}
	d := runDispatcher(t, sender, bus)

	r := testRide()
	driverID := types.ID("d1")
	fare := 31.75
	r.DriverID = &driverID
	r.Status = ride.StatusCompleted
	r.ActualFare = &fare

	d.RideTransition(ride.Transition{
		RideID:         r.ID,
		PreviousStatus: ride.StatusInProgress,
		NewStatus:      ride.StatusCompleted,
		Ride:           r,
		At:             time.Now(),
	})

	waitFor(t, func() bool { return len(sender.received("c1")) == 1 })
	var payload map[string]any
	if err := json.Unmarshal(sender.received("c1")[0], &payload); err != nil {
		t.Fatal(err)
	}
	if payload["actual_fare"] != 31.75 {
		t.Fatalf("actual_fare = %v, want 31.75", payload["actual_fare"])
	}

	waitFor(t, func() bool { return len(bus.published()) == 1 })
	if keys := bus.published(); keys[0] != KeyRideCompleted {
		t.Fatalf("routing key = %s, want %s", keys[0], KeyRideCompleted)
	}
}

func TestOfflineRecipientDoesNotBlockOthers(t *testing.T) {
	sender := newFakeSender()
	sender.offline["d1"] = true
	d := runDispatcher(t, sender, &fakeBus{})

	d.RideRequested(testRide(), []types.ID{"d1", "d2"})

	// d2 still gets the offer even though d1's send failed.
	waitFor(t, func() bool { return len(sender.received("d2")) == 1 })
	if got := sender.received("d1"); len(got) != 0 {
		t.Fatalf("offline driver received %d payloads", len(got))
	}
}

func TestLocationPingPublishesOnly(t *testing.T) {
	sender := newFakeSender()
	bus := &fakeBus{}
	d := runDispatcher(t, sender, bus)

	d.DriverLocationUpdated("d1", types.Point{Lat: 40.7, Lng: -74.0})

	waitFor(t, func() bool { return len(bus.published()) == 1 })
	if keys := bus.published(); keys[0] != KeyDriverLocation {
		t.Fatalf("routing key = %s, want %s", keys[0], KeyDriverLocation)
	}
	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.sends) != 0 {
		t.Fatalf("location ping should not hit the sender, got %v", sender.sends)
	}
}

func TestEnqueueNeverBlocksWhenQueueFull(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := NewDispatcher(newFakeSender(), nil, log)
	// No Run loop draining the queue.

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < defaultQueueDepth+100; i++ {
			d.DriverLocationUpdated("d1", types.Point{Lat: 40.7, Lng: -74.0})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}
}

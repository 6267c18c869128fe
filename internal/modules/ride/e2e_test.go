// README: End-to-end lifecycle test wiring location, matching, pricing and dispatch together.
package ride_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"rideflow/internal/config"
	"rideflow/internal/modules/location"
	"rideflow/internal/modules/matching"
	"rideflow/internal/modules/pricing"
	"rideflow/internal/modules/ride"
	"rideflow/internal/notify"
	"rideflow/internal/types"
)

type capturingSender struct {
	mu    sync.Mutex
	sends map[types.ID][]map[string]any
}

func newCapturingSender() *capturingSender {
	return &capturingSender{sends: make(map[types.ID][]map[string]any)}
}

func (c *capturingSender) Send(recipientID types.ID, payload []byte) error {
	var m map[string]any
	if err := json.Unmarshal(payload, &m); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sends[recipientID] = append(c.sends[recipientID], m)
	return nil
}

func (c *capturingSender) count(recipientID types.ID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sends[recipientID])
}

func (c *capturingSender) last(recipientID types.ID) map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.sends[recipientID]
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

type stack struct {
	cache    *location.MemStore
	rides    *ride.Service
	location *location.Service
	sender   *capturingSender
}

func newStack(t *testing.T) *stack {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cache := location.NewMemStore(5 * time.Minute)
	matchCfg := config.MatchingConfig{RingRadiiKm: []float64{2, 5, 10}, FanOut: 10}
	matcher := matching.NewService(cache, nil, matchCfg, log)

	priceCfg := config.PricingConfig{
		BaseFare: 2.50, PerMileRate: 1.75, PerMinuteRate: 0.35,
		BookingFee: 2.00, MinimumFare: 7.00, PredictorTimeout: 50 * time.Millisecond,
	}
	pricer := pricing.NewService(priceCfg, pricing.StaticDemand{Ratio: 0.2}, nil, nil, log)

	sender := newCapturingSender()
	dispatcher := notify.NewDispatcher(sender, nil, log)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		dispatcher.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	store := ride.NewMemStore()
	rides := ride.NewService(store, pricer, matcher, dispatcher, nil, log)
	locSvc := location.NewService(cache, dispatcher, log)

	return &stack{cache: cache, rides: rides, location: locSvc, sender: sender}
}

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

// The whole happy path: three nearby drivers get the offer, two race to
// accept, the winner drives the trip to completion and the realized fare is
// persisted on the ride.
func TestRideLifecycleEndToEnd(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	pickup := types.Point{Lat: 40.7128, Lng: -74.0060}
	dropoff := types.Point{Lat: 40.7580, Lng: -73.9855}

	// Three drivers inside the inner ring, one far outside every ring.
	for i, km := range []float64{0.3, 0.8, 1.5} {
		id := types.ID(fmt.Sprintf("driver-%d", i+1))
		p := types.Point{Lat: pickup.Lat + km/111.32, Lng: pickup.Lng}
		if err := s.location.Update(ctx, id, p); err != nil {
			t.Fatalf("driver ping: %v", err)
		}
	}
	if err := s.location.Update(ctx, "driver-remote", types.Point{Lat: pickup.Lat + 1, Lng: pickup.Lng}); err != nil {
		t.Fatal(err)
	}

	r, err := s.rides.Create(ctx, ride.CreateCommand{
		CustomerID:    "cust-1",
		Pickup:        pickup,
		Dropoff:       dropoff,
		VehicleType:   "economy",
		PaymentMethod: "card",
	})
	if err != nil {
		t.Fatalf("create ride: %v", err)
	}
	if r.Status != ride.StatusRequested {
		t.Fatalf("status = %s, want requested", r.Status)
	}
	if r.EstimatedFare < 7.00 {
		t.Fatalf("estimated fare %.2f below minimum", r.EstimatedFare)
	}

	// All three nearby drivers get the offer; the remote one does not.
	waitFor(t, func() bool {
		return s.sender.count("driver-1") == 1 &&
			s.sender.count("driver-2") == 1 &&
			s.sender.count("driver-3") == 1
	})
	if s.sender.count("driver-remote") != 0 {
		t.Fatal("driver outside every ring received an offer")
	}
	if offer := s.sender.last("driver-1"); offer["type"] != "ride_offer" {
		t.Fatalf("unexpected offer payload: %v", offer)
	}

	// Two drivers race; exactly one binds.
	var wg sync.WaitGroup
	errs := make(map[types.ID]error)
	var mu sync.Mutex
	for _, id := range []types.ID{"driver-1", "driver-2"} {
		wg.Add(1)
		go func(id types.ID) {
			defer wg.Done()
			_, err := s.rides.Accept(ctx, r.ID, id)
			mu.Lock()
			errs[id] = err
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	var winner types.ID
	for id, err := range errs {
		switch err {
		case nil:
			if winner != "" {
				t.Fatal("two drivers accepted the same ride")
			}
			winner = id
		case ride.ErrConflict:
		default:
			t.Fatalf("%s: unexpected accept error %v", id, err)
		}
	}
	if winner == "" {
		t.Fatal("nobody won the accept race")
	}

	if _, err := s.rides.Begin(ctx, r.ID, winner); err != nil {
		t.Fatalf("begin: %v", err)
	}
	got, err := s.rides.Complete(ctx, r.ID, winner)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got.Status != ride.StatusCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}
	if got.ActualFare == nil || *got.ActualFare < 7.00 {
		t.Fatalf("actual fare = %v, want at least the minimum", got.ActualFare)
	}
	if got.CompletedAt == nil {
		t.Fatal("completed_at not stamped")
	}

	// Customer saw accept, start, and completion.
	waitFor(t, func() bool { return s.sender.count("cust-1") == 3 })
	final := s.sender.last("cust-1")
	if final["new_status"] != string(ride.StatusCompleted) {
		t.Fatalf("final customer notification = %v", final)
	}
	if _, ok := final["actual_fare"]; !ok {
		t.Fatal("completion notification missing actual_fare")
	}

	// Winner is free again and can take the next ride.
	r2, err := s.rides.Create(ctx, ride.CreateCommand{
		CustomerID: "cust-2", Pickup: pickup, Dropoff: dropoff, VehicleType: "economy",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.rides.Accept(ctx, r2.ID, winner); err != nil {
		t.Fatalf("winner cannot accept a new ride after completing: %v", err)
	}
}

// A ride created with no drivers in range still succeeds, and a later
// cancellation notifies the customer.
func TestRideWithNoDriversThenCancelled(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	r, err := s.rides.Create(ctx, ride.CreateCommand{
		CustomerID:  "cust-1",
		Pickup:      types.Point{Lat: 40.7128, Lng: -74.0060},
		Dropoff:     types.Point{Lat: 40.7580, Lng: -73.9855},
		VehicleType: "economy",
	})
	if err != nil {
		t.Fatalf("create ride: %v", err)
	}

	got, err := s.rides.Cancel(ctx, ride.CancelCommand{
		RideID: r.ID, ActorID: "cust-1", ActorType: "customer", Reason: "waited too long",
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != ride.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", got.Status)
	}

	waitFor(t, func() bool { return s.sender.count("cust-1") == 1 })
	msg := s.sender.last("cust-1")
	if msg["new_status"] != string(ride.StatusCancelled) {
		t.Fatalf("cancel notification = %v", msg)
	}
}

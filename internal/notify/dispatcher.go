// README: Notification dispatcher: channel-based fan-out of ride transitions and location pings.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"rideflow/internal/modules/ride"
	"rideflow/internal/types"
)

// Sender delivers a payload to one connected recipient. A missing or
// disconnected recipient is not an error condition for the dispatcher.
type Sender interface {
	Send(recipientID types.ID, payload []byte) error
}

// EventPublisher puts committed lifecycle events on the downstream stream
// (billing, analytics).
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body any) error
}

// Event stream routing keys.
const (
	KeyRideRequested   = "ride.requested"
	KeyRideStatus      = "ride.status.updated"
	KeyRideCompleted   = "ride.completed"
	KeyDriverLocation  = "driver.location.updated"
	defaultQueueDepth  = 1024
	publishSendTimeout = 3 * time.Second
)

type job struct {
	recipients []types.ID
	payload    any
	routingKey string
	event      any
}

// Dispatcher consumes state-machine transitions and fans them out to the
// affected parties and the event bus. Everything is best-effort: a full
// queue or an unreachable recipient is dropped with a log record, never an
// error back into the state machine.
type Dispatcher struct {
	sender Sender
	bus    EventPublisher
	log    *slog.Logger
	queue  chan job
}

func NewDispatcher(sender Sender, bus EventPublisher, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		bus:    bus,
		log:    log,
		queue:  make(chan job, defaultQueueDepth),
	}
}

// Run drains the queue until ctx is cancelled. Start exactly once.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-d.queue:
			d.deliver(ctx, j)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, j job) {
	if len(j.recipients) > 0 && d.sender != nil {
		body, err := json.Marshal(j.payload)
		if err != nil {
			d.log.Error("notification marshal failed", "err", err)
		} else {
			for _, rcpt := range j.recipients {
				if err := d.sender.Send(rcpt, body); err != nil {
					d.log.Info("notification dropped", "recipient", rcpt, "err", err)
				}
			}
		}
	}
	if j.routingKey != "" && d.bus != nil {
		pctx, cancel := context.WithTimeout(ctx, publishSendTimeout)
		if err := d.bus.Publish(pctx, j.routingKey, j.event); err != nil {
			d.log.Warn("event publish failed", "key", j.routingKey, "err", err)
		}
		cancel()
	}
}

// enqueue never blocks; the queue overflowing drops the job.
func (d *Dispatcher) enqueue(j job) {
	select {
	case d.queue <- j:
	default:
		d.log.Warn("notification queue full, dropping", "key", j.routingKey)
	}
}

// RideRequested offers a new ride to the matched drivers, nearest first.
func (d *Dispatcher) RideRequested(r *ride.Ride, drivers []types.ID) {
	d.enqueue(job{
		recipients: drivers,
		payload: map[string]any{
			"type":           "ride_offer",
			"ride_id":        r.ID,
			"pickup":         r.Pickup,
			"dropoff":        r.Dropoff,
			"vehicle_type":   r.VehicleType,
			"estimated_fare": r.EstimatedFare,
		},
		routingKey: KeyRideRequested,
		event: map[string]any{
			"ride_id":        r.ID,
			"customer_id":    r.CustomerID,
			"pickup":         r.Pickup,
			"dropoff":        r.Dropoff,
			"estimated_fare": r.EstimatedFare,
			"requested_at":   r.RequestedAt,
			"offered_to":     drivers,
		},
	})
}

// RideTransition informs the bound parties and publishes the stream event.
func (d *Dispatcher) RideTransition(t ride.Transition) {
	recipients := []types.ID{t.Ride.CustomerID}
	if t.Ride.DriverID != nil {
		recipients = append(recipients, *t.Ride.DriverID)
	}

	key := KeyRideStatus
	if t.NewStatus == ride.StatusCompleted {
		key = KeyRideCompleted
	}

	payload := map[string]any{
		"type":            "ride_status",
		"ride_id":         t.RideID,
		"previous_status": t.PreviousStatus,
		"new_status":      t.NewStatus,
	}
	if t.Ride.ActualFare != nil {
		payload["actual_fare"] = *t.Ride.ActualFare
	}

	d.enqueue(job{
		recipients: recipients,
		payload:    payload,
		routingKey: key,
		event: map[string]any{
			"ride_id":         t.RideID,
			"previous_status": t.PreviousStatus,
			"new_status":      t.NewStatus,
			"at":              t.At,
		},
	})
}

// DriverLocationUpdated publishes location pings for downstream consumers.
func (d *Dispatcher) DriverLocationUpdated(driverID types.ID, p types.Point) {
	d.enqueue(job{
		routingKey: KeyDriverLocation,
		event: map[string]any{
			"driver_id": driverID,
			"lat":       p.Lat,
			"lng":       p.Lng,
		},
	})
}

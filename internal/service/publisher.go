// Package service holds outbound integrations used by the booking engine.
// Publisher forwards booking events to RabbitMQ.
package service

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/cinema-booking/internal/booking"
    "github.com/iliyamo/cinema-booking/internal/queue"
)

// Publish runs inside booking requests, so a dead broker must cost a
// request at most one short dial.
const (
    defaultDialTimeout = 2 * time.Second
    defaultRetryDelay  = 10 * time.Second
)

// ErrBrokerUnavailable is returned by Publish while the publisher waits
// out the retry delay after a failed dial.
var ErrBrokerUnavailable = errors.New("rabbitmq unavailable")

// Publisher sends booking events to the booking.events queue.  It keeps
// one connection and channel open and redials lazily after the broker
// drops them.  After a failed dial it does not dial again for
// RetryDelay.  It is safe for concurrent use.
type Publisher struct {
    url string

    DialTimeout time.Duration
    RetryDelay  time.Duration

    mu      sync.Mutex
    conn    *amqp.Connection
    ch      *amqp.Channel
    retryAt time.Time
    now     func() time.Time
}

// NewPublisher returns a Publisher for the broker at url.  No connection
// is made until the first Publish.
func NewPublisher(url string) *Publisher {
    return &Publisher{
        url:         url,
        DialTimeout: defaultDialTimeout,
        RetryDelay:  defaultRetryDelay,
        now:         time.Now,
    }
}

func (p *Publisher) dial(ctx context.Context) (*amqp.Connection, error) {
    timeout := p.DialTimeout
    if dl, ok := ctx.Deadline(); ok {
        if left := time.Until(dl); left < timeout {
            timeout = left
        }
    }
    if timeout <= 0 {
        return nil, context.DeadlineExceeded
    }
    return amqp.DialConfig(p.url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(timeout),
    })
}

// channel returns an open channel with the queue declared, dialling if
// needed.  p.mu must be held.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
        return p.ch, nil
    }
    p.closeLocked()

    if p.now().Before(p.retryAt) {
        return nil, ErrBrokerUnavailable
    }
    if err := ctx.Err(); err != nil {
        return nil, err
    }
    conn, err := p.dial(ctx)
    if err != nil {
        p.retryAt = p.now().Add(p.RetryDelay)
        return nil, fmt.Errorf("rabbitmq dial: %w", err)
    }
    p.retryAt = time.Time{}
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("rabbitmq channel: %w", err)
    }
    // Durable so events survive broker restarts.
    if _, err := ch.QueueDeclare(queue.BookingQueue, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

// Publish implements booking.EventSink.
func (p *Publisher) Publish(ctx context.Context, ev booking.Event) error {
    body, err := json.Marshal(ToQueueEvent(ev))
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channel(ctx)
    if err != nil {
        return err
    }
    msg := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         string(ev.Type),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", queue.BookingQueue, false, false, msg); err != nil {
        p.closeLocked()
        return fmt.Errorf("rabbitmq publish: %w", err)
    }
    return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.closeLocked()
    return nil
}

func (p *Publisher) closeLocked() {
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
    if p.conn != nil {
        _ = p.conn.Close()
        p.conn = nil
    }
}

// ToQueueEvent maps an engine event onto the wire payload.
func ToQueueEvent(ev booking.Event) queue.BookingEvent {
    return queue.BookingEvent{
        Type:           string(ev.Type),
        BookingID:      ev.Booking.ID,
        AuditoriumID:   ev.Booking.AuditoriumID,
        AuditoriumName: ev.AuditoriumName,
        Time:           ev.Booking.Time,
        Seat:           ev.Booking.SeatNumber,
        Email:          ev.Booking.Email,
        BookerID:       ev.Booking.BookerID,
        OccurredAt:     ev.OccurredAt,
    }
}

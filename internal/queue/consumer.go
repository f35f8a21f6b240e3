package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Logger is the subset of echo's logger the consumer writes to.
type Logger interface {
    Infof(format string, args ...interface{})
    Warnf(format string, args ...interface{})
}

// Consumer reads booking events and appends one line per event to
// LogFile.
type Consumer struct {
    URL     string
    LogFile string
    L       Logger
}

// Run connects to the broker, declares the queue and consumes until ctx
// is done.  Lost connections are redialled with exponential backoff
// capped at 30s.  Messages that cannot be handled are rejected without
// requeue.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.L.Warnf("booking-consumer: dial failed: %v; retrying in %s", err, backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second
        c.L.Infof("booking-consumer: connected, consuming %s", BookingQueue)

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.L.Warnf("booking-consumer: consume loop ended: %v; reconnecting", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.L.Warnf("booking-consumer: set QoS failed: %v", err)
    }
    if _, err := ch.QueueDeclare(BookingQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(BookingQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handle(d.Body); err != nil {
                c.L.Warnf("booking-consumer: handle message failed: %v", err)
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *Consumer) handle(body []byte) error {
    var ev BookingEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.BookingID == 0 {
        return errors.New("event without type or booking id")
    }
    return appendLine(c.LogFile, FormatEvent(ev))
}

// FormatEvent renders ev as one log line.
func FormatEvent(ev BookingEvent) string {
    booker := "-"
    if ev.BookerID != nil {
        booker = fmt.Sprint(*ev.BookerID)
    }
    return fmt.Sprintf("[%s] %s | booking_id=%d | booker_id=%s | auditorium=%q (%d) | time=%q | seat=%d | email=%s\n",
        ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.BookingID, booker,
        ev.AuditoriumName, ev.AuditoriumID, ev.Time, ev.Seat, ev.Email)
}

func appendLine(path, line string) error {
    if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
    }
    f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

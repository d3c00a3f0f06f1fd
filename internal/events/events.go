// Package events announces finished creator reports to other services.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/gauthierbraillon/creatorpulse/internal/aggregator"
)

// ReportCompleted is published once per stored creator report.
type ReportCompleted struct {
	SessionID     string              `json:"session_id"`
	CreatorName   string              `json:"creator_name"`
	Category      aggregator.Category `json:"category"`
	OverallScore  float64             `json:"overall_score"`
	TotalComments int                 `json:"total_comments"`
	Timestamp     time.Time           `json:"timestamp"`
}

// NewReportCompleted summarizes a report stored under sessionID.
func NewReportCompleted(sessionID string, report *aggregator.Report) ReportCompleted {
	return ReportCompleted{
		SessionID:     sessionID,
		CreatorName:   report.CreatorName,
		Category:      report.Business.Category,
		OverallScore:  report.Business.OverallScore,
		TotalComments: report.Stats.TotalCount,
		Timestamp:     report.Timestamp,
	}
}

// Publisher sends report events.
type Publisher interface {
	Publish(ctx context.Context, event ReportCompleted) error
}

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subj string, data []byte) error
}

// NATSPublisher writes events as JSON to one subject.
type NATSPublisher struct {
	conn    Conn
	subject string
}

// NewNATSPublisher creates a publisher on subject.
func NewNATSPublisher(conn Conn, subject string) *NATSPublisher {
	return &NATSPublisher{conn: conn, subject: subject}
}

func (p *NATSPublisher) Publish(ctx context.Context, event ReportCompleted) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.subject, err)
	}
	return nil
}

// Noop discards events. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, ReportCompleted) error { return nil }

// Connect dials NATS with reconnect handling that logs through logger.
func Connect(url string, logger *slog.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.Name("creatorpulse"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.Timeout(5 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(url, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}
	return nc, nil
}

var (
	_ Publisher = (*NATSPublisher)(nil)
	_ Publisher = Noop{}
	_ Conn      = (*nats.Conn)(nil)
)

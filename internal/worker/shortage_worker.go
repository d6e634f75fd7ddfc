package worker

// shortage_worker.go
// Processes shortage notification jobs from QueueShortageAlert.
// Delivers the advisory message to the configured alert recipient via
// SMTP, guarded by the circuit breaker so a downed mail relay does not
// stall the pool. Exhausted jobs land in the DLQ.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fabriq/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// MaxAlertAttempts bounds delivery retries per job before the DLQ.
const MaxAlertAttempts = 3

// ShortageAlertPayload is the job envelope sent to QueueShortageAlert.
type ShortageAlertPayload struct {
	BOMName string `json:"bom_name"`
	Message string `json:"message"`
}

// ShortageWorker emails raw-material shortage advisories.
type ShortageWorker struct {
	mailer    *infra.Mailer
	cb        *infra.CircuitBreaker
	rdb       *redis.Client
	recipient string
}

func NewShortageWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker, rdb *redis.Client, recipient string) *ShortageWorker {
	return &ShortageWorker{mailer: mailer, cb: cb, rdb: rdb, recipient: recipient}
}

// Process sends one shortage advisory email.
func (w *ShortageWorker) Process(ctx context.Context, job Job) {
	var payload ShortageAlertPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		log.Error().Err(err).Msg("shortage_worker: invalid payload")
		return
	}
	if w.recipient == "" {
		log.Warn().Str("bom", payload.BOMName).Msg("shortage_worker: no alert recipient configured, dropping")
		return
	}

	subject := fmt.Sprintf("Stock shortage: %s", payload.BOMName)
	body := payload.Message

	err := withRetry(ctx, MaxAlertAttempts, func(attempt int) error {
		return w.cb.Execute(func() error {
			if err := w.mailer.Send(w.recipient, subject, body); err != nil {
				log.Warn().
					Err(err).
					Int("attempt", attempt+1).
					Str("bom", payload.BOMName).
					Msg("shortage_worker: delivery attempt failed, retrying")
				return err
			}
			return nil
		})
	})
	if err != nil {
		log.Error().Err(err).Str("bom", payload.BOMName).Msg("shortage_worker: delivery failed after all retries")
		SendToDLQ(ctx, w.rdb, QueueShortageAlert, "shortage_alert", job.Payload, err.Error(), job.Attempts+MaxAlertAttempts)
		return
	}
	log.Info().Str("bom", payload.BOMName).Str("to", w.recipient).Msg("shortage_worker: alert delivered")
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

package worker

// retry_cron.go
// Background goroutine that periodically re-drives dead-lettered
// shortage alerts once the mail circuit breaker has recovered.
// Entries past the hard retry ceiling stay dead for manual inspection.

import (
	"context"
	"encoding/json"
	"time"

	"fabriq/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10

	// Total attempts across initial delivery and DLQ re-drives.
	maxTotalAttempts = 9
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	RDB *redis.Client
	CB  *infra.CircuitBreaker
}

// StartRetryCron launches a background goroutine that ticks every 30s
// and, when the circuit breaker is not open, moves a small batch of
// dead-lettered shortage alerts back onto the live queue.
// It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	// If CB is open, skip entirely — don't hammer a downed relay
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	requeued := 0
	for i := 0; i < retryBatchSize; i++ {
		entry, err := PopFromDLQ(ctx, cfg.RDB, QueueShortageAlert)
		if err != nil {
			log.Error().Err(err).Msg("retry_cron: failed to pop from DLQ")
			return
		}
		if entry == nil {
			break
		}

		if entry.Attempts >= maxTotalAttempts {
			log.Error().
				Str("job_type", entry.JobType).
				Int("attempts", entry.Attempts).
				Msg("retry_cron: retry ceiling reached, leaving dead")
			// Push back to the tail so it is not re-popped this tick.
			data, _ := json.Marshal(entry)
			_ = cfg.RDB.LPush(ctx, DLQPrefix+QueueShortageAlert, data).Err()
			continue
		}

		job := Job{Type: entry.JobType, Payload: entry.Payload, Attempts: entry.Attempts}
		encoded, err := json.Marshal(job)
		if err != nil {
			log.Error().Err(err).Msg("retry_cron: failed to marshal job")
			continue
		}
		if err := cfg.RDB.LPush(ctx, QueueShortageAlert, encoded).Err(); err != nil {
			log.Error().Err(err).Msg("retry_cron: failed to requeue job")
			continue
		}
		requeued++
	}

	if requeued > 0 {
		log.Info().Int("count", requeued).Msg("retry_cron: re-drove dead-lettered shortage alerts")
	}
}

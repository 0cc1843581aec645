package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/newzify/newzify/internal/domain/job"
	"github.com/newzify/newzify/internal/jobs"
	"github.com/newzify/newzify/internal/notifications"
	"github.com/newzify/newzify/internal/observability"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
}

type Config struct {
	PollInterval time.Duration
	WorkerID     string
}

// Worker drains the mail outbox: claim, decode, send, settle.
type Worker struct {
	cfg      Config
	repo     JobsRepository
	notifier notifications.Notifier
	prom     *observability.Prom
	log      *slog.Logger

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, repo JobsRepository, notifier notifications.Notifier, prom *observability.Prom, log *slog.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}

	return &Worker{
		cfg:      cfg,
		repo:     repo,
		notifier: notifier,
		prom:     prom,
		log:      log,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker received shutdown signal")
			return nil

		case <-ticker.C:
			// drain everything that is currently runnable before sleeping again
			for {
				processed, err := w.ProcessOne(ctx)

				if err != nil {
					w.log.Error("process error", "err", err)
					break
				}

				if !processed {
					break
				}
			}
		}
	}
}

// ProcessOne claims and executes a single job. Returns false when no job was
// available.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)

	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			return false, nil
		}

		return false, err
	}

	start := time.Now()

	if w.prom != nil {
		w.prom.MailsInFlight.Inc()
	}

	err = w.execute(ctx, j)

	if w.prom != nil {
		w.prom.MailsInFlight.Dec()
	}

	if err != nil {
		w.handleFailure(ctx, j, err, time.Since(start))
		return true, nil
	}

	w.observeResult(j.Type, "done", time.Since(start))

	err = w.repo.MarkDone(ctx, j.ID)

	if err != nil {
		_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		return true, err
	}

	w.log.Info("mail sent", "job_id", j.ID, "type", j.Type)

	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	payload, err := jobs.DecodePayload(j.Type, j.Payload)

	if err != nil {
		return err
	}

	var msg notifications.Message

	switch p := payload.(type) {
	case jobs.WelcomeMailPayload:
		msg = notifications.Message{
			Kind:  notifications.KindWelcome,
			Email: p.Email,
			Name:  p.Name,
		}
	case jobs.SubscriptionMailPayload:
		msg = notifications.Message{
			Kind:  notifications.KindSubscription,
			Email: p.Email,
			Name:  p.Name,
		}
	default:
		return jobs.ErrInvalidType
	}

	return w.notifier.Send(ctx, msg)
}

func (w *Worker) handleFailure(ctx context.Context, j job.Job, cause error, took time.Duration) {
	// a malformed payload never becomes sendable, retrying is pointless
	permanent := errors.Is(cause, jobs.ErrInvalidType) || errors.Is(cause, jobs.ErrInvalidPayload)

	if permanent || j.Attempts+1 >= j.MaxAttempts {
		w.observeResult(j.Type, "failed", took)
		w.log.Error("mail dead-lettered", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts+1, "err", cause)

		if err := w.repo.MarkFailed(ctx, j.ID, cause.Error()); err != nil {
			w.log.Error("mark failed error", "job_id", j.ID, "err", err)
		}
		return
	}

	w.observeResult(j.Type, "retry", took)

	delay := ExponentialBackoff(j.Attempts)
	runAt := time.Now().UTC().Add(delay)

	w.log.Warn("mail send failed, rescheduling", "job_id", j.ID, "type", j.Type, "attempt", j.Attempts+1, "retry_in", delay, "err", cause)

	if err := w.repo.Reschedule(ctx, j.ID, runAt, cause.Error()); err != nil {
		w.log.Error("reschedule error", "job_id", j.ID, "err", err)
	}
}

func (w *Worker) observeResult(mailType, result string, took time.Duration) {
	if w.prom == nil {
		return
	}

	w.prom.MailResults.WithLabelValues(mailType, result).Inc()
	w.prom.MailDuration.WithLabelValues(mailType, result).Observe(took.Seconds())
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

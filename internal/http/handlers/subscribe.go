package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newzify/newzify/internal/config"
	"github.com/newzify/newzify/internal/domain/job"
	"github.com/newzify/newzify/internal/domain/subscriber"
	"github.com/newzify/newzify/internal/jobs"
)

type SubscriberStore interface {
	Upsert(ctx context.Context, name, email string) (subscriber.Subscriber, bool, error)
}

type SubscribeHandler struct {
	subscribers SubscriberStore
	jobsRepo    JobEnqueuer
	health      Readiness
	log         *slog.Logger
}

func NewSubscribeHandler(subscribers SubscriberStore, jobsRepo JobEnqueuer, health Readiness, log *slog.Logger) *SubscribeHandler {
	return &SubscribeHandler{
		subscribers: subscribers,
		jobsRepo:    jobsRepo,
		health:      health,
		log:         log,
	}
}

type SubscribeRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

func (h *SubscribeHandler) Subscribe(ctx *gin.Context) {
	if !h.health.Ready() {
		RespondUnavailable(ctx, "Database unavailable. Please try again shortly.")
		return
	}

	var req SubscribeRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if !emailRegex.MatchString(req.Email) {
		RespondBadRequest(ctx, "invalid_email", "Invalid email format", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	sub, created, err := h.subscribers.Upsert(cctx, req.Name, req.Email)

	if err != nil {
		h.log.Error("subscriber upsert failed", "err", err)
		RespondInternal(ctx, "Subscription failed.")
		return
	}

	// subscribing twice is fine, but don't mail again
	if created {
		if err := h.enqueueSubscriptionMail(cctx, sub); err != nil {
			h.log.Error("subscription mail enqueue failed", "subscriber_id", sub.ID, "err", err)
			RespondInternal(ctx, "Subscription failed.")
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Subscription success!",
	})
}

func (h *SubscribeHandler) enqueueSubscriptionMail(ctx context.Context, sub subscriber.Subscriber) error {
	if h.jobsRepo == nil {
		return nil
	}

	payload := jobs.SubscriptionMailPayload{
		SubscriberID: sub.ID,
		Email:        sub.Email,
		Name:         sub.Name,
		RequestedAt:  time.Now().UTC(),
	}

	raw, err := payload.JSON()

	if err != nil {
		return err
	}

	_, err = h.jobsRepo.Create(ctx, job.CreateRequest{
		Type:    jobs.TypeSubscriptionMail,
		Payload: raw,
	})

	return err
}

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newzify/newzify/internal/auth"
	"github.com/newzify/newzify/internal/config"
	"github.com/newzify/newzify/internal/domain/job"
	"github.com/newzify/newzify/internal/domain/user"
	"github.com/newzify/newzify/internal/jobs"
	"github.com/newzify/newzify/internal/observability"
	"github.com/newzify/newzify/internal/security"
)

// same pattern the SPA validates against; keep them in sync
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type UserWriter interface {
	Create(ctx context.Context, name, email, passwordHash string) (user.User, error)
}

type JobEnqueuer interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

// Readiness is the availability gate: credential operations fail fast when the
// store is unreachable instead of hanging on a dead connection.
type Readiness interface {
	Ready() bool
}

type AuthHandler struct {
	users      UserReader
	userWriter UserWriter
	jwt        *auth.Manager
	jobsRepo   JobEnqueuer
	health     Readiness
	prom       *observability.Prom
	log        *slog.Logger
}

func NewAuthHandler(users UserReader, userWriter UserWriter, jwtManager *auth.Manager, jobsRepo JobEnqueuer, health Readiness, prom *observability.Prom, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:      users,
		userWriter: userWriter,
		jwt:        jwtManager,
		jobsRepo:   jobsRepo,
		health:     health,
		prom:       prom,
		log:        log,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	// gate first: no validation result is worth reporting if every next step
	// would fail anyway
	if !h.health.Ready() {
		RespondUnavailable(ctx, "Database unavailable. Please try again shortly.")
		return
	}

	var req RegisterRequest

	if !BindJSONWithMessage(ctx, &req, "All fields are required") {
		return
	}

	if !emailRegex.MatchString(req.Email) {
		RespondBadRequest(ctx, "invalid_email", "Invalid email format", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	exists, err := h.users.EmailExists(cctx, req.Email)

	if err != nil {
		h.log.Error("registration lookup failed", "err", err)
		RespondInternal(ctx, "Internal server error during registration")
		return
	}

	if exists {
		RespondBadRequest(ctx, "email_taken", "User already exists", nil)
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		h.log.Error("password hash failed", "err", err)
		RespondInternal(ctx, "Internal server error during registration")
		return
	}

	u, err := h.userWriter.Create(cctx, req.Name, req.Email, hash)

	if err != nil {
		// the unique index catches the race between the check above and the
		// insert; same answer as the pre-check
		if errors.Is(err, user.ErrEmailTaken) {
			RespondBadRequest(ctx, "email_taken", "User already exists", nil)
			return
		}

		h.log.Error("user insert failed", "err", err)
		RespondInternal(ctx, "Internal server error during registration")
		return
	}

	// best-effort welcome mail; the registration result does not depend on it
	h.enqueueWelcomeMail(cctx, u)

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	if !h.health.Ready() {
		RespondUnavailable(ctx, "Database unavailable. Please try again shortly.")
		return
	}

	var req LoginRequest

	if !BindJSONWithMessage(ctx, &req, "Email and password are required") {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)

	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			h.log.Error("login lookup failed", "err", err)
			RespondInternal(ctx, "Internal server error")
			return
		}

		// same code and message as a wrong password, so callers cannot probe
		// which emails exist
		h.log.Debug("login for unknown email", "email", req.Email)
		RespondBadRequest(ctx, "invalid_credentials", "Invalid email or password", nil)
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		h.log.Debug("login with wrong password", "email", req.Email)
		RespondBadRequest(ctx, "invalid_credentials", "Invalid email or password", nil)
		return
	}

	token, err := h.jwt.GenerateSessionToken(foundUser.ID, foundUser.Email)

	if err != nil {
		h.log.Error("token generation failed", "err", err)
		RespondInternal(ctx, "Internal server error")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"user": gin.H{
			"id":        foundUser.ID,
			"name":      foundUser.Name,
			"email":     foundUser.Email,
			"createdAt": foundUser.CreatedAt,
		},
	})
}

func (h *AuthHandler) enqueueWelcomeMail(ctx context.Context, u user.User) {
	if h.jobsRepo == nil {
		return
	}

	payload := jobs.WelcomeMailPayload{
		UserID:      u.ID,
		Email:       u.Email,
		Name:        u.Name,
		RequestedAt: time.Now().UTC(),
	}

	raw, err := payload.JSON()

	if err == nil {
		_, err = h.jobsRepo.Create(ctx, job.CreateRequest{
			Type:    jobs.TypeWelcomeMail,
			Payload: raw,
		})
	}

	if err != nil {
		// surfaced via log + metric only, never through the response
		h.log.Error("welcome mail enqueue failed", "user_id", u.ID, "err", err)

		if h.prom != nil {
			h.prom.EnqueueFailures.WithLabelValues(jobs.TypeWelcomeMail).Inc()
		}
	}
}

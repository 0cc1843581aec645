package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newzify/newzify/internal/config"
	"github.com/newzify/newzify/internal/newsapi"
)

type HeadlineSource interface {
	TopHeadlines(ctx context.Context, query newsapi.Query) (newsapi.Headlines, error)
}

const maxNewsPageSize = 100 // upstream cap

type NewsHandler struct {
	source HeadlineSource
	log    *slog.Logger
}

func NewNewsHandler(source HeadlineSource, log *slog.Logger) *NewsHandler {
	return &NewsHandler{source: source, log: log}
}

func (h *NewsHandler) TopHeadlines(ctx *gin.Context) {
	// nil source: no API key configured
	if h.source == nil {
		RespondUnavailable(ctx, "News service is not configured.")
		return
	}

	query := newsapi.Query{
		Category: ctx.Query("category"),
		Country:  ctx.DefaultQuery("country", "us"),
		Page:     intQuery(ctx, "page", 1),
		PageSize: intQuery(ctx, "pageSize", 20),
	}

	if query.Page < 1 {
		query.Page = 1
	}

	if query.PageSize < 1 || query.PageSize > maxNewsPageSize {
		query.PageSize = 20
	}

	cctx, cancel := config.WithTimeout(10 * time.Second)

	defer cancel()

	headlines, err := h.source.TopHeadlines(cctx, query)

	if err != nil {
		if errors.Is(err, newsapi.ErrUpstream) {
			h.log.Warn("news upstream failed", "err", err)
			RespondError(ctx, http.StatusBadGateway, "upstream_error", "Could not fetch news", nil)
			return
		}

		h.log.Error("news fetch failed", "err", err)
		RespondInternal(ctx, "Could not fetch news")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":      true,
		"totalResults": headlines.TotalResults,
		"articles":     headlines.Articles,
	})
}

func intQuery(ctx *gin.Context, key string, fallback int) int {
	v := ctx.Query(key)

	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)

	if err != nil {
		return fallback
	}

	return n
}

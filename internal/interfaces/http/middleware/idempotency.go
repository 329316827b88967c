package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/leadsyncpro/billing/internal/domain/billing"
	"github.com/leadsyncpro/billing/internal/shared/biztime"
	"github.com/leadsyncpro/billing/internal/shared/constants"
	apperrors "github.com/leadsyncpro/billing/internal/shared/errors"
	"github.com/leadsyncpro/billing/internal/shared/logger"
	"github.com/leadsyncpro/billing/internal/shared/utils"
)

const defaultIdempotencyTTL = 5 * time.Minute

// IdempotencyGuard replays the stored response of a request repeated with the
// same Idempotency-Key and rejects a key reused for a different request.
type IdempotencyGuard struct {
	store  billing.IdempotencyRepository
	ttl    time.Duration
	now    func() time.Time
	newID  func() string
	logger logger.Interface
}

func NewIdempotencyGuard(store billing.IdempotencyRepository, ttl time.Duration, logger logger.Interface) *IdempotencyGuard {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyGuard{
		store:  store,
		ttl:    ttl,
		now:    biztime.NowUTC,
		newID:  uuid.NewString,
		logger: logger,
	}
}

func (g *IdempotencyGuard) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(constants.HeaderIdempotencyKey))
		if key == "" {
			g.abort(c, apperrors.NewConflictError("Idempotency-Key header is required"))
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			g.abort(c, apperrors.NewBadRequestError("failed to read request body", err.Error()))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		ctx := c.Request.Context()
		hash := RequestHash(c.Request.Method, c.Request.URL.RequestURI(), body)

		entry, err := g.lookup(ctx, key, hash)
		if err != nil {
			g.logger.Errorw("idempotency lookup failed", "idempotency_key", key, "error", err)
			g.abort(c, apperrors.NewInternalError("failed to check idempotency key"))
			return
		}
		if !entry.Matches(hash) {
			g.logger.Warnw("idempotency key reused with a different request",
				"idempotency_key", key,
				"path", c.Request.URL.Path,
			)
			g.abort(c, apperrors.NewConflictError("Idempotency-Key was already used for a different request"))
			return
		}

		if entry.HasResponse() {
			g.logger.Debugw("replaying idempotent response", "idempotency_key", key)
			c.Header(constants.HeaderIdempotentReplay, "true")
			c.Data(*entry.ResponseStatus(), "application/json; charset=utf-8", entry.ResponseBody())
			c.Abort()
			return
		}

		capture := &responseCapture{ResponseWriter: c.Writer}
		c.Writer = capture
		c.Next()

		g.complete(context.WithoutCancel(ctx), entry, c.Writer.Status(), capture.body.Bytes())
	}
}

// lookup returns the live entry for key, creating a pending one when none
// exists. Only an expired entry is removed; the caller compares the request
// hash with whatever entry ends up holding the key.
func (g *IdempotencyGuard) lookup(ctx context.Context, key, hash string) (*billing.IdempotencyEntry, error) {
	now := g.now()

	entry, err := g.store.FindActive(ctx, key, now)
	if err != nil || entry != nil {
		return entry, err
	}

	if err := g.store.DeleteExpired(ctx, key, now); err != nil {
		return nil, err
	}

	return g.store.CreateOrGet(ctx, billing.NewIdempotencyEntry(g.newID(), key, hash, now, g.ttl))
}

func (g *IdempotencyGuard) complete(ctx context.Context, entry *billing.IdempotencyEntry, status int, body []byte) {
	if status >= http.StatusInternalServerError {
		if err := g.store.Delete(ctx, entry.ID()); err != nil {
			g.logger.Errorw("failed to release idempotency key", "idempotency_key", entry.Key(), "error", err)
		}
		return
	}

	if err := g.store.SaveResponse(ctx, entry.ID(), body, status, g.now().Add(g.ttl)); err != nil {
		g.logger.Errorw("failed to store idempotent response", "idempotency_key", entry.Key(), "error", err)
	}
}

func (g *IdempotencyGuard) abort(c *gin.Context, err error) {
	utils.ErrorResponseWithError(c, err)
	c.Abort()
}

// RequestHash fingerprints a request as base64(sha256(method + uri + body)).
func RequestHash(method, requestURI string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(requestURI))
	h.Write(body)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

type responseCapture struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *responseCapture) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseCapture) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

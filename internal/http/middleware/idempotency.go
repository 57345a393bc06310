package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the client-chosen key that deduplicates
// retries of paid operations. The client reuses one key per semantic scan, so
// a flaky upload retried three times bills one extraction.
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys for idempotency state, read through the accessors below.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

// keyPattern is the default allowed alphabet: an RFC 7230-ish token plus a
// few safe punctuation characters.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key stashed by IdempotencyValidator
// and whether one was present. Handlers read this, never the raw header.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	s := ctxString(c, ctxKeyIdemKey)
	return s, s != ""
}

// IsReplay reports whether the validator found a still-valid prior result for
// this (user, scope, key). Handlers use it to serve the stored result instead
// of repeating the operation.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures key validation. TTL is not checked here; the
// lookup decides whether a stored record is still live.
type IdempotencyOptions struct {
	// Scope names the operation family the keys deduplicate within, e.g.
	// "scans". Empty means "default".
	Scope string
	// MaxLen caps accepted key length; values <= 0 mean 200.
	MaxLen int
	// Pattern overrides the allowed-character check.
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether a completed, unexpired result already
// exists for (userID, scope, key) at now. Lookup errors are treated as "no
// record" so storage trouble never blocks fresh requests.
type IdempotencyLookup func(ctx context.Context, userID, scope, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator checks the Idempotency-Key header when present,
// rejects malformed keys with 400, and stashes valid ones in the context.
// When the lookup finds a prior result the request is flagged as a replay and
// exempted from rate limiting, since serving it costs nothing upstream.
// Requests without the header pass through untouched.
//
// The validator never replays a payload itself; the owning handler fetches
// and returns the stored result.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = keyPattern
	}
	scope := opts.Scope
	if scope == "" {
		scope = "default"
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "bad_idempotency_key",
				"message": "invalid Idempotency-Key",
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			uid := userIdentity(c)
			if exists, _ := lookup(c.Request.Context(), uid, scope, key, time.Now().UTC()); exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}

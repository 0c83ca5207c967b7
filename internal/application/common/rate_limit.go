package common

import (
	"context"
	"reflect"
	"time"

	"github.com/gradient-bang/server/internal/domain/shared"
)

// RateLimitStore enforces a per-(character,method) call budget, backed by
// the rate_limits table so the window survives process restarts.
type RateLimitStore interface {
	CheckAndIncrement(ctx context.Context, characterID shared.ID, method string, max int, window time.Duration) (allowed bool, retryAfter time.Duration, err error)
}

// RateLimitRule is the {max, window} pair enforced for one dispatcher method.
type RateLimitRule struct {
	Max    int
	Window time.Duration
}

// RateLimited lets a command/query name its own rate-limit bucket when it
// differs from the Go type name (e.g. a shared bucket across variants).
type RateLimited interface {
	RateLimitMethod() string
}

// RateLimitMiddleware enforces rules keyed by method name against the
// resolved actor's character id. Requests for methods with no configured
// rule, or carrying no resolvable character id, pass through unthrottled.
func RateLimitMiddleware(store RateLimitStore, rules map[string]RateLimitRule) Middleware {
	return func(ctx context.Context, request Request, next HandlerFunc) (Response, error) {
		method := rateLimitMethodName(request)
		rule, configured := rules[method]
		if !configured {
			return next(ctx, request)
		}

		resolved, ok := ResolvedActorFromContext(ctx)
		if !ok {
			return next(ctx, request)
		}

		allowed, retryAfter, err := store.CheckAndIncrement(ctx, resolved.CharacterID, method, rule.Max, rule.Window)
		if err != nil {
			return nil, shared.NewTransientError("rate limit check failed", err)
		}
		if !allowed {
			return nil, shared.NewRateLimitError(retryAfter)
		}

		return next(ctx, request)
	}
}

func rateLimitMethodName(request Request) string {
	if rl, ok := request.(RateLimited); ok {
		return rl.RateLimitMethod()
	}
	t := reflect.TypeOf(request)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

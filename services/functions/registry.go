// Package functions is the named-function runtime: handlers registered by
// name, invoked with a JSON body, rate limited per user and recorded in
// function_invocations.
package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"careerhub-backend/config"
	"careerhub-backend/errors"
	"careerhub-backend/logger"
	fnmodels "careerhub-backend/models/functions"
)

// Call is one invocation as seen by a handler.
type Call struct {
	UserID uint
	Body   json.RawMessage
}

// Handler runs a function. The returned value is encoded as the JSON result.
type Handler func(ctx context.Context, call Call) (interface{}, error)

type Registry struct {
	db       *gorm.DB
	handlers map[string]Handler
	limit    rate.Limit
	burst    int
	timeout  time.Duration
	logger   *zap.SugaredLogger

	mu        sync.Mutex
	limiters  map[uint]*userLimiter
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// MinLimiterIdle is the shortest time an unused per-user limiter is kept.
const MinLimiterIdle = 10 * time.Minute

type userLimiter struct {
	*rate.Limiter
	seen time.Time
}

func NewRegistry(db *gorm.DB, cfg config.FunctionConfig) *Registry {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	// A limiter idle for longer than a full refill is equivalent to a new one.
	idle := MinLimiterIdle
	if cfg.Rate > 0 {
		if refill := time.Duration(float64(burst) / cfg.Rate * float64(time.Second)); refill > idle {
			idle = refill
		}
	}
	return &Registry{
		db:       db,
		handlers: map[string]Handler{},
		limit:    rate.Limit(cfg.Rate),
		burst:    burst,
		timeout:  cfg.Timeout,
		logger:   logger.ComponentLogger("functions"),
		limiters: map[uint]*userLimiter{},
		idle:     idle,
		now:      time.Now,
	}
}

// Register adds h under name. Registering a name twice panics.
func (r *Registry) Register(name string, h Handler) {
	if _, dup := r.handlers[name]; dup {
		panic("functions: duplicate registration of " + name)
	}
	r.handlers[name] = h
}

// Names lists registered functions alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) limiter(userID uint) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if now.Sub(r.lastSweep) >= r.idle {
		r.sweep(now)
	}
	l, ok := r.limiters[userID]
	if !ok {
		l = &userLimiter{Limiter: rate.NewLimiter(r.limit, r.burst)}
		r.limiters[userID] = l
	}
	l.seen = now
	return l.Limiter
}

// sweep drops limiters nobody used for r.idle. Callers hold r.mu.
func (r *Registry) sweep(now time.Time) {
	for id, l := range r.limiters {
		if now.Sub(l.seen) >= r.idle {
			delete(r.limiters, id)
		}
	}
	r.lastSweep = now
}

// Invoke runs the named function for userID.
func (r *Registry) Invoke(ctx context.Context, userID uint, name string, body []byte) (interface{}, error) {
	h, ok := r.handlers[name]
	if !ok {
		return nil, errors.WithHintf(errors.NotFoundf("function %q", name),
			"available functions: %s", strings.Join(r.Names(), ", "))
	}
	if !r.limiter(userID).Allow() {
		return nil, errors.WithHint(errors.Wrapf(errors.ErrRateLimited, "function %s", name),
			"slow down and retry in a moment")
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := h(ctx, Call{UserID: userID, Body: body})
	elapsed := time.Since(start)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		err = errors.Wrapf(errors.Mark(err, errors.ErrTimeout), "function %s", name)
	}

	r.record(ctx, userID, name, elapsed, err)
	return result, err
}

func (r *Registry) record(ctx context.Context, userID uint, name string, elapsed time.Duration, err error) {
	log := logger.FromContext(ctx, r.logger).With(logger.FieldFunction, name, logger.FieldDurationMS, elapsed.Milliseconds())
	inv := fnmodels.Invocation{
		Name:       name,
		UserID:     userID,
		RequestID:  logger.RequestID(ctx),
		DurationMS: elapsed.Milliseconds(),
		Success:    err == nil,
	}
	if err != nil {
		inv.Error = err.Error()
		log.Warnw("function failed", logger.FieldError, err)
	} else {
		log.Infow("function invoked")
	}
	// The caller's context may already be past its deadline.
	if dbErr := r.db.WithContext(context.WithoutCancel(ctx)).Create(&inv).Error; dbErr != nil {
		log.Errorw("record invocation", logger.FieldError, dbErr)
	}
}

// Decode unmarshals a call body into T. An empty body yields the zero value;
// unknown fields are rejected.
func Decode[T any](body json.RawMessage) (T, error) {
	var v T
	if len(bytes.TrimSpace(body)) == 0 {
		return v, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, errors.Invalidf("invalid body: %v", err)
	}
	return v, nil
}

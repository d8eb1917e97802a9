package store

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Instrumented wraps a Store with the per-call timing span and retry
// policy of spec.md §4.2/§5: every call is tagged (operation,
// partitionTag); calls slower than SlowThreshold are logged as slow;
// retriable transport failures (ErrThroughputExceeded) are retried up to
// MaxRetries times with a per-attempt timeout, never ConditionFailed or
// TransactionCanceled, which are domain signals.
type Instrumented struct {
	inner         Store
	log           zerolog.Logger
	SlowThreshold time.Duration
	AttemptTimeout time.Duration
	TotalTimeout   time.Duration
	MaxRetries     int
}

// NewInstrumented wraps inner with the default thresholds from spec.md §5:
// 500ms slow-query threshold, 5s per-attempt timeout, 10s total API
// timeout, 3 retries.
func NewInstrumented(inner Store, log zerolog.Logger) *Instrumented {
	return &Instrumented{
		inner:          inner,
		log:            log,
		SlowThreshold:  500 * time.Millisecond,
		AttemptTimeout: 5 * time.Second,
		TotalTimeout:   10 * time.Second,
		MaxRetries:     3,
	}
}

func (i *Instrumented) span(ctx context.Context, operation, partitionTag string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, i.TotalTimeout)
	defer cancel()

	start := time.Now()
	var err error
	for attempt := 0; attempt <= i.MaxRetries; attempt++ {
		attemptCtx, attemptCancel := context.WithTimeout(ctx, i.AttemptTimeout)
		err = fn(attemptCtx)
		attemptCancel()
		if err == nil || !retriable(err) {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	dur := time.Since(start)
	evt := i.log.Debug()
	if dur >= i.SlowThreshold {
		evt = i.log.Warn()
	}
	evt.Str("operation", operation).Str("partition", partitionTag).Dur("duration", dur).Err(err).Msg("store call")
	return err
}

func retriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConditionFailed) {
		return false
	}
	var tce *TransactionCanceledError
	if errors.As(err, &tce) {
		return false
	}
	return errors.Is(err, ErrThroughputExceeded) || errors.Is(err, context.DeadlineExceeded)
}

func (i *Instrumented) Get(ctx context.Context, pk, sk string) (*Item, error) {
	var out *Item
	err := i.span(ctx, "Get", pk, func(ctx context.Context) error {
		var e error
		out, e = i.inner.Get(ctx, pk, sk)
		return e
	})
	return out, err
}

func (i *Instrumented) Put(ctx context.Context, item Item, cond *Condition) error {
	return i.span(ctx, "Put", item.PK, func(ctx context.Context) error {
		return i.inner.Put(ctx, item, cond)
	})
}

func (i *Instrumented) Update(ctx context.Context, pk, sk string, upd Update, cond *Condition) error {
	return i.span(ctx, "Update", pk, func(ctx context.Context) error {
		return i.inner.Update(ctx, pk, sk, upd, cond)
	})
}

func (i *Instrumented) Delete(ctx context.Context, pk, sk string, cond *Condition) error {
	return i.span(ctx, "Delete", pk, func(ctx context.Context) error {
		return i.inner.Delete(ctx, pk, sk, cond)
	})
}

func (i *Instrumented) Query(ctx context.Context, pk string, opts QueryOptions) (Page, error) {
	var out Page
	err := i.span(ctx, "Query", pk, func(ctx context.Context) error {
		var e error
		out, e = i.inner.Query(ctx, pk, opts)
		return e
	})
	return out, err
}

func (i *Instrumented) QueryIndex(ctx context.Context, index Index, pk string, opts QueryOptions) (Page, error) {
	var out Page
	err := i.span(ctx, "QueryIndex:"+string(index), pk, func(ctx context.Context) error {
		var e error
		out, e = i.inner.QueryIndex(ctx, index, pk, opts)
		return e
	})
	return out, err
}

func (i *Instrumented) BatchWrite(ctx context.Context, puts []Item, deletes []Key) error {
	return i.span(ctx, "BatchWrite", "", func(ctx context.Context) error {
		return i.inner.BatchWrite(ctx, puts, deletes)
	})
}

func (i *Instrumented) Transact(ctx context.Context, ops []Op) error {
	partitionTag := ""
	if len(ops) > 0 {
		partitionTag = ops[0].Item.PK
		if partitionTag == "" {
			partitionTag = ops[0].PK
		}
	}
	return i.span(ctx, "Transact", partitionTag, func(ctx context.Context) error {
		return i.inner.Transact(ctx, ops)
	})
}

var _ Store = (*Instrumented)(nil)

package thunk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/linode/cloudmanager/engine/core"
	"github.com/linode/cloudmanager/engine/resource"
	"github.com/linode/cloudmanager/pkg/logger"
)

// PollingKey is the local flag set on an item while Until polls it.
const PollingKey = "_polling"

var errNotYet = errors.New("condition not met")

// UntilRequest polls one object until Test accepts it.
type UntilRequest struct {
	IDs      []core.ID
	Test     func(core.Object) bool
	Interval time.Duration
	// MaxAttempts stops polling after that many fetches when positive.
	MaxAttempts uint64
}

// Until refetches the object with One until req.Test returns true, ctx ends
// or MaxAttempts is reached. The stored item carries PollingKey=true meanwhile.
// An item already flagged fails fast with ErrAlreadyPolling.
func (t *Thunks) Until(ctx context.Context, req UntilRequest) (core.Object, error) {
	if err := t.require(resource.CapOne); err != nil {
		return nil, err
	}
	if req.Test == nil {
		return nil, fmt.Errorf("until %s: test is required", t.name)
	}
	log := logger.FromContext(ctx)
	ids := t.normalize(req.IDs)
	interval := req.Interval
	if interval <= 0 {
		interval = t.gen.opts.PollInterval
	}
	key := t.schema.Path(ids...)
	if _, busy := t.gen.polling.LoadOrStore(key, struct{}{}); busy {
		return nil, fmt.Errorf("until %s: %w", t.name, ErrAlreadyPolling)
	}
	defer t.gen.polling.Delete(key)
	if _, item, err := t.gen.store.Resolve(ctx, t.node, ids...); err == nil && item != nil && item.Data[PollingKey] == true {
		return core.MergeObjects(nil, item.Data), fmt.Errorf("until %s: %w", t.name, ErrAlreadyPolling)
	}
	if err := t.dispatch(ctx, t.actions.One(core.Object{PollingKey: true}, ids...)); err != nil {
		return nil, err
	}
	defer func() {
		// the caller's ctx may already be done
		if err := t.dispatch(context.WithoutCancel(ctx), t.actions.One(core.Object{PollingKey: false}, ids...)); err != nil {
			log.Warn("Failed to clear polling flag", "resource", t.name, "error", err)
		}
	}()
	backoff := retry.NewConstant(interval)
	if req.MaxAttempts > 0 {
		backoff = retry.WithMaxRetries(req.MaxAttempts-1, backoff)
	}
	var last core.Object
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		obj, err := t.One(ctx, ids)
		if err != nil {
			return err
		}
		last = obj
		if !req.Test(obj) {
			return retry.RetryableError(errNotYet)
		}
		return nil
	})
	if err != nil {
		return last, fmt.Errorf("until %s: %w", t.name, err)
	}
	return last, nil
}

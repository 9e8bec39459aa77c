package thunk

import (
	"context"
	"fmt"

	"github.com/linode/cloudmanager/engine/core"
	"github.com/linode/cloudmanager/engine/resource"
)

// Delete removes the object addressed by ids remotely, then locally.
func (t *Thunks) Delete(ctx context.Context, ids ...core.ID) error {
	if err := t.require(resource.CapDelete); err != nil {
		return err
	}
	ids = t.normalize(ids)
	path := t.schema.Path(ids...)
	if _, err := t.gen.client.Delete(ctx, path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return t.dispatch(ctx, t.actions.Delete(ids...))
}

// Put updates the object addressed by ids and commits the response.
func (t *Thunks) Put(ctx context.Context, obj core.Object, ids ...core.ID) (core.Object, error) {
	if err := t.require(resource.CapUpdate); err != nil {
		return nil, err
	}
	ids = t.normalize(ids)
	path := t.schema.Path(ids...)
	body, err := t.gen.client.Put(ctx, path, obj)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", path, err)
	}
	return t.commit(ctx, body, ids)
}

// Post creates an object under the ancestors in ids. The new item is keyed
// by the primary key of the response.
func (t *Thunks) Post(ctx context.Context, obj core.Object, ids ...core.ID) (core.Object, error) {
	if err := t.require(resource.CapCreate); err != nil {
		return nil, err
	}
	ids = t.normalize(ids)
	path := t.schema.Path(ids...)
	body, err := t.gen.client.Post(ctx, path, obj)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return t.commit(ctx, body, ids)
}

func (t *Thunks) commit(ctx context.Context, body []byte, ids []core.ID) (core.Object, error) {
	resp, err := core.DecodeObject(body)
	if err != nil {
		return nil, err
	}
	if err := t.dispatch(ctx, t.actions.One(resp, ids...)); err != nil {
		return nil, err
	}
	return resp, nil
}

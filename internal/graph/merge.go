package graph

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// MergeResult reports the outcome of Merge.
type MergeResult struct {
	ID      int64
	Created bool
}

// Merge is the merge-by-key upsert shared by job ingestion and résumé
// materialization.
//
// First write for (label, key): the node is created with every non-nil prop,
// any missing defaults, and created_at. Later writes only set props whose new
// value is non-nil and stamp updated_at; stored values are never replaced by nil.
// Non-nil merges commute, so concurrent writers converge on the same node.
func Merge(ctx context.Context, tx Tx, label, key string, props, defaults Props, now time.Time) (MergeResult, error) {
	keyProp, ok := Keys[label]
	if !ok {
		return MergeResult{}, fmt.Errorf("merge %s: label has no key", label)
	}
	if key == "" {
		return MergeResult{}, fmt.Errorf("merge %s: empty %s", label, keyProp)
	}
	if err := tx.Lock(ctx, label, key); err != nil {
		return MergeResult{}, fmt.Errorf("lock %s %q: %w", label, key, err)
	}

	existing, err := tx.FindByKey(ctx, label, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return MergeResult{}, fmt.Errorf("find %s %q: %w", label, key, err)
	}

	if existing == nil {
		create := nonNil(props)
		for k, v := range defaults {
			if _, set := create[k]; !set && v != nil {
				create[k] = v
			}
		}
		create[keyProp] = key
		create["created_at"] = Timestamp(now)
		id, err := tx.CreateNode(ctx, label, create)
		if err != nil {
			return MergeResult{}, fmt.Errorf("create %s %q: %w", label, key, err)
		}
		return MergeResult{ID: id, Created: true}, nil
	}

	update := nonNil(props)
	delete(update, keyProp)
	update["updated_at"] = Timestamp(now)
	if err := tx.SetProps(ctx, existing.ID, update); err != nil {
		return MergeResult{}, fmt.Errorf("update %s %q: %w", label, key, err)
	}
	return MergeResult{ID: existing.ID}, nil
}

func nonNil(props Props) Props {
	out := make(Props, len(props)+2)
	for k, v := range props {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

package store

import "context"

// Collection is a whole-collection repository stored under one key
type Collection[T any] struct {
	db  *DB
	key string
}

// NewCollection binds a collection to key
func NewCollection[T any](db *DB, key string) *Collection[T] {
	return &Collection[T]{db: db, key: key}
}

// Key returns the storage key
func (c *Collection[T]) Key() string {
	return c.key
}

// Load returns the full collection; an absent key reads as empty
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	var items []T
	err := c.db.View(ctx, func(tx *Tx) error {
		var err error
		items, err = c.LoadTx(tx)
		return err
	})
	return items, err
}

// Save replaces the full collection
func (c *Collection[T]) Save(ctx context.Context, items []T) error {
	return c.db.Update(ctx, func(tx *Tx) error {
		return c.SaveTx(tx, items)
	})
}

// Modify loads, transforms and saves the collection in one transaction
func (c *Collection[T]) Modify(ctx context.Context, fn func([]T) ([]T, error)) error {
	return c.db.Update(ctx, func(tx *Tx) error {
		items, err := c.LoadTx(tx)
		if err != nil {
			return err
		}
		items, err = fn(items)
		if err != nil {
			return err
		}
		return c.SaveTx(tx, items)
	})
}

// LoadTx reads the collection inside tx
func (c *Collection[T]) LoadTx(tx *Tx) ([]T, error) {
	items := []T{}
	data := tx.get(c.key)
	if data == nil {
		return items, nil
	}
	if err := decode(c.key, data, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// SaveTx writes the collection inside tx
func (c *Collection[T]) SaveTx(tx *Tx, items []T) error {
	if items == nil {
		items = []T{}
	}
	return tx.put(c.key, items)
}

// Value is a single JSON object stored under one key
type Value[T any] struct {
	db  *DB
	key string
}

// NewValue binds a value to key
func NewValue[T any](db *DB, key string) *Value[T] {
	return &Value[T]{db: db, key: key}
}

// Load returns the stored value, or nil when the key is absent
func (v *Value[T]) Load(ctx context.Context) (*T, error) {
	var out *T
	err := v.db.View(ctx, func(tx *Tx) error {
		data := tx.get(v.key)
		if data == nil {
			return nil
		}
		var item T
		if err := decode(v.key, data, &item); err != nil {
			return err
		}
		out = &item
		return nil
	})
	return out, err
}

// Save stores the value
func (v *Value[T]) Save(ctx context.Context, item T) error {
	return v.db.Update(ctx, func(tx *Tx) error {
		return tx.put(v.key, item)
	})
}

// Clear removes the value
func (v *Value[T]) Clear(ctx context.Context) error {
	return v.db.Delete(ctx, v.key)
}

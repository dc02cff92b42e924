package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	bolt "go.etcd.io/bbolt"
)

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCollectionLoadEmpty(t *testing.T) {
	db := openTestDB(t)
	c := NewCollection[item](db, "items")

	items, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", items)
	}
}

func TestCollectionSaveLoad(t *testing.T) {
	db := openTestDB(t)
	c := NewCollection[item](db, "items")
	ctx := context.Background()

	want := []item{{1, "a"}, {2, "b"}}
	if err := c.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Load() = %v, want %v", got, want)
	}
}

func TestCollectionLegacyArray(t *testing.T) {
	db := openTestDB(t)
	err := db.bolt.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketData).Put([]byte("items"), []byte(`[{"id":7,"name":"legacy"}]`))
	})
	if err != nil {
		t.Fatalf("failed to seed legacy value: %v", err)
	}

	got, err := NewCollection[item](db, "items").Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "legacy" {
		t.Errorf("Load() = %v, want legacy item", got)
	}
}

func TestCollectionFutureVersion(t *testing.T) {
	db := openTestDB(t)
	err := db.bolt.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketData).Put([]byte("items"), []byte(`{"version":99,"items":[]}`))
	})
	if err != nil {
		t.Fatalf("failed to seed value: %v", err)
	}

	_, err = NewCollection[item](db, "items").Load(context.Background())
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("Load() error = %v, want ErrUnsupportedVersion", err)
	}
}

func TestCollectionModifyConcurrent(t *testing.T) {
	db := openTestDB(t)
	c := NewCollection[item](db, "items")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := c.Modify(ctx, func(items []item) ([]item, error) {
				return append(items, item{ID: n}), nil
			})
			if err != nil {
				t.Errorf("Modify() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	items, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(items) != 50 {
		t.Errorf("expected 50 items, got %d", len(items))
	}
}

func TestCollectionModifyErrorRollsBack(t *testing.T) {
	db := openTestDB(t)
	c := NewCollection[item](db, "items")
	ctx := context.Background()

	if err := c.Save(ctx, []item{{1, "keep"}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	boom := errors.New("boom")
	err := c.Modify(ctx, func(items []item) ([]item, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Modify() error = %v, want boom", err)
	}

	items, _ := c.Load(ctx)
	if len(items) != 1 || items[0].Name != "keep" {
		t.Errorf("collection changed after failed Modify: %v", items)
	}
}

func TestValue(t *testing.T) {
	db := openTestDB(t)
	v := NewValue[item](db, "one")
	ctx := context.Background()

	got, err := v.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for absent value, got %v", got)
	}

	if err := v.Save(ctx, item{ID: 3, Name: "x"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err = v.Load(ctx)
	if err != nil || got == nil || got.ID != 3 {
		t.Fatalf("Load() = %v, %v", got, err)
	}

	if err := v.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	got, _ = v.Load(ctx)
	if got != nil {
		t.Errorf("expected nil after Clear, got %v", got)
	}
}

func TestCanceledContext(t *testing.T) {
	db := openTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewCollection[item](db, "items").Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestCampaignCacheKey(t *testing.T) {
	if got := CampaignCacheKey(5); got != "campaign_cache:5" {
		t.Errorf("CampaignCacheKey(5) = %q", got)
	}
}

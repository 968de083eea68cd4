package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeRedisStore struct {
	values map[string]string
}

func newFakeRedisStore() *fakeRedisStore {
	return &fakeRedisStore{values: map[string]string{}}
}

func (f *fakeRedisStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeRedisStore) Get(_ context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeRedisStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestRedisLockAcquireRelease(t *testing.T) {
	store := newFakeRedisStore()
	lock, err := NewRedisLock(store, "ts:lock:sync:humanitix", time.Minute)
	if err != nil {
		t.Fatalf("setup lock: %v", err)
	}

	ok, err := lock.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected acquire to succeed, got %v %v", ok, err)
	}

	second, err := NewRedisLock(store, "ts:lock:sync:humanitix", time.Minute)
	if err != nil {
		t.Fatalf("setup second lock: %v", err)
	}
	ok, err = second.Acquire(context.Background())
	if err != nil || ok {
		t.Fatalf("held lock must not be re-acquired, got %v %v", ok, err)
	}

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}

	ok, err = second.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected acquire after release, got %v %v", ok, err)
	}
}

func TestRedisLockReleaseIgnoresStolenLock(t *testing.T) {
	store := newFakeRedisStore()
	lock, err := NewRedisLock(store, "ts:lock:sync:eventbrite", time.Minute)
	if err != nil {
		t.Fatalf("setup lock: %v", err)
	}
	if _, err := lock.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	// TTL expiry elsewhere replaced the owner
	store.values["ts:lock:sync:eventbrite"] = "someone-else"

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release must not fail on ownership change: %v", err)
	}
	if store.values["ts:lock:sync:eventbrite"] != "someone-else" {
		t.Fatalf("release must not delete another owner's lock")
	}
}

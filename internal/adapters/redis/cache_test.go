package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	redisad "hotel_booking/internal/adapters/redis"
	"hotel_booking/internal/domain"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_SetGetDel(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	in := domain.WalletView{ID: "w1", CustomerID: "c1", Currency: "EUR", Balance: "10.00 EUR"}
	if err := c.Set(ctx, "wallet:c1", in, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("hotel:wallet:c1") {
		t.Fatalf("expected namespaced key in redis, have %v", mr.Keys())
	}

	var out domain.WalletView
	ok, err := c.Get(ctx, "wallet:c1", &out)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if out.Balance != "10.00 EUR" || out.CustomerID != "c1" {
		t.Fatalf("unexpected value: %+v", out)
	}

	if err := c.Del(ctx, "wallet:c1"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if ok, _ := c.Get(ctx, "wallet:c1", &out); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestCache_TTL(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "reservation:r1", domain.ReservationView{ID: "r1"}, 30)
	mr.FastForward(31 * time.Second)

	var out domain.ReservationView
	if ok, _ := c.Get(ctx, "reservation:r1", &out); ok {
		t.Fatalf("expected entry to expire")
	}
}

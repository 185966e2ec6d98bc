package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tbadri/ragchat/internal/data/redisstore"
)

func setupCache(t *testing.T) (*SemanticCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(redisstore.NewTestStore(client)), mr
}

func TestSemanticCache_HitAboveCutoff(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	vec := []float32{1, 0, 0}
	if err := c.SaveToCache(ctx, vec, "the answer"); err != nil {
		t.Fatalf("SaveToCache failed: %v", err)
	}

	// identical vector scores 1.0, well above the cutoff
	answer, found := c.GetCachedAnswer(ctx, vec)
	if !found {
		t.Fatal("expected a cache hit for an identical vector")
	}
	if answer != "the answer" {
		t.Errorf("answer got %q, want %q", answer, "the answer")
	}
}

func TestSemanticCache_MissBelowCutoff(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	if err := c.SaveToCache(ctx, []float32{1, 0, 0}, "cached"); err != nil {
		t.Fatalf("SaveToCache failed: %v", err)
	}

	// orthogonal query scores 0, far below the cutoff
	if _, found := c.GetCachedAnswer(ctx, []float32{0, 1, 0}); found {
		t.Error("expected a miss for a dissimilar vector")
	}
}

func TestSemanticCache_EmptyCacheMisses(t *testing.T) {
	c, _ := setupCache(t)

	if _, found := c.GetCachedAnswer(context.Background(), []float32{1, 0}); found {
		t.Error("expected a miss on an empty cache")
	}
}

func TestSemanticCache_RedisDownIsAMiss(t *testing.T) {
	c, mr := setupCache(t)
	mr.Close()

	// a dead backend must degrade to a miss, never an error
	if _, found := c.GetCachedAnswer(context.Background(), []float32{1, 0}); found {
		t.Error("expected a miss when redis is down")
	}
}

func TestSemanticCache_StaleDimensionSkipped(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	// entry from an older embedding model with a different dimension
	if err := c.SaveToCache(ctx, []float32{1, 0}, "old model answer"); err != nil {
		t.Fatalf("SaveToCache failed: %v", err)
	}
	if err := c.SaveToCache(ctx, []float32{1, 0, 0}, "current answer"); err != nil {
		t.Fatalf("SaveToCache failed: %v", err)
	}

	answer, found := c.GetCachedAnswer(ctx, []float32{1, 0, 0})
	if !found {
		t.Fatal("expected a hit on the current-dimension entry")
	}
	if answer != "current answer" {
		t.Errorf("answer got %q, want %q", answer, "current answer")
	}
}

package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/TemirB/bankid-sign/internal/domain"
)

//go:generate mockgen -source internal/cache/cache.go -destination=internal/cache/cache_mock_test.go -package=cache

type repo interface {
	Get(ctx context.Context, id int64) (*domain.Sign, error)
	RecentIDs(ctx context.Context, limit int) ([]int64, error)
}

type Cache struct {
	size int
	lru  *lru.Cache[int64, domain.Sign]
}

func New(size int) (*Cache, error) {
	c, err := lru.New[int64, domain.Sign](size)
	if err != nil {
		return nil, err
	}
	return &Cache{
		size: size,
		lru:  c,
	}, nil
}

func (c *Cache) Warm(ctx context.Context, repo repo) {
	if ids, err := repo.RecentIDs(ctx, c.size); err == nil {
		for _, id := range ids {
			if s, err := repo.Get(ctx, id); err == nil {
				c.Set(s)
			}
		}
	}
}

func (c *Cache) Get(id int64) (*domain.Sign, bool) {
	s, ok := c.lru.Get(id)
	if !ok {
		return nil, false
	}
	return &s, true
}

func (c *Cache) Set(s *domain.Sign) {
	c.lru.Add(s.ID, *s)
}

func (c *Cache) Remove(id int64) {
	c.lru.Remove(id)
}

// Replace drops every entry and loads signs (newest first), keeping the
// cache in step with a full listing. Over capacity the newest survive.
func (c *Cache) Replace(signs []domain.Sign) {
	c.lru.Purge()
	for i := len(signs) - 1; i >= 0; i-- {
		c.Set(&signs[i])
	}
}

func (c *Cache) Len() int { return c.lru.Len() }

package app

import (
	"context"
	"time"

	"dormdesk/internal/domain"
)

// Catalog serves the static-ish room-type configuration, cached with a TTL.
// Availability is never answered from here; only the catalog itself is
// cache-safe.
type Catalog struct {
	rooms domain.RoomRepository
	cache domain.Cache
	ttl   time.Duration
}

func NewCatalog(rooms domain.RoomRepository, cache domain.Cache, ttl time.Duration) *Catalog {
	return &Catalog{rooms: rooms, cache: cache, ttl: ttl}
}

func (c *Catalog) Get(ctx context.Context, id string) (domain.RoomType, error) {
	key := "room:" + id
	var rt domain.RoomType
	if ok, _ := c.cache.Get(ctx, key, &rt); ok {
		return rt, nil
	}
	rt, err := c.rooms.GetRoomType(ctx, id)
	if err != nil {
		return domain.RoomType{}, err
	}
	_ = c.cache.Set(ctx, key, rt, int(c.ttl.Seconds()))
	return rt, nil
}

func (c *Catalog) List(ctx context.Context) ([]domain.RoomType, error) {
	key := "rooms:all"
	var out []domain.RoomType
	if ok, _ := c.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	out, err := c.rooms.ListRoomTypes(ctx)
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(ctx, key, out, int(c.ttl.Seconds()))
	return out, nil
}

package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	stockKeyPrefix = "stock:"
	txRefKeyPrefix = "txref:"
	txRefTTL       = 24 * time.Hour
)

// decrementStockScript atomically decrements the stock key only when enough
// units remain. Returns 1 on success, 0 when stock is insufficient or the
// key is missing.
var decrementStockScript = redis.NewScript(`
local key = KEYS[1]
local quantity = tonumber(ARGV[1])

local current = redis.call('GET', key)
if not current then
	return 0
end

current = tonumber(current)
if current >= quantity then
	redis.call('DECRBY', key, quantity)
	return 1
end

return 0
`)

// StockGuard serializes concurrent stock decrements during checkout so two
// simultaneous orders cannot both claim the last unit. It also tracks
// payment-gateway transaction references for checkout idempotency.
type StockGuard struct {
	client *redis.Client
}

func NewStockGuard(client *redis.Client) *StockGuard {
	return &StockGuard{client: client}
}

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// Reserve atomically takes quantity units of a product's stock. Returns
// false when fewer than quantity units remain.
func (g *StockGuard) Reserve(ctx context.Context, productID string, quantity int) (bool, error) {
	key := stockKeyPrefix + productID

	result, err := decrementStockScript.Run(ctx, g.client, []string{key}, quantity).Int()
	if err != nil {
		return false, err
	}

	return result == 1, nil
}

// Release returns quantity units to a product's stock, used to roll back
// earlier lines when a later line of the same checkout fails, and when a
// pending order is deleted.
func (g *StockGuard) Release(ctx context.Context, productID string, quantity int) error {
	key := stockKeyPrefix + productID
	return g.client.IncrBy(ctx, key, int64(quantity)).Err()
}

// SetStock seeds the guarded stock level for a product.
func (g *StockGuard) SetStock(ctx context.Context, productID string, quantity int) error {
	key := stockKeyPrefix + productID
	return g.client.Set(ctx, key, quantity, 0).Err()
}

// ClaimTransactionRef claims a payment-gateway transaction reference.
// Returns false if the reference was already used by an earlier checkout.
func (g *StockGuard) ClaimTransactionRef(ctx context.Context, txRef string) (bool, error) {
	return g.client.SetNX(ctx, txRefKeyPrefix+txRef, 1, txRefTTL).Result()
}

// ReleaseTransactionRef frees a claimed reference after a failed checkout so
// the client may retry with the same token.
func (g *StockGuard) ReleaseTransactionRef(ctx context.Context, txRef string) error {
	return g.client.Del(ctx, txRefKeyPrefix+txRef).Err()
}

// internal/common/wallet/store.go
package wallet

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"agentkit-workers/internal/common/database"
	apperrors "agentkit-workers/internal/common/errors"
	"agentkit-workers/internal/models"
)

const keyPrefix = "wallet:"

// Store is the wallet registry kept in Redis under wallet:<id>.
type Store struct {
	redis *database.RedisClient
}

func NewStore(redis *database.RedisClient) *Store {
	return &Store{redis: redis}
}

func (s *Store) Save(ctx context.Context, rec models.WalletRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return apperrors.NewWalletStoreFailedError(err)
	}
	if err := s.redis.Set(ctx, keyPrefix+rec.ID, data, 0); err != nil {
		return apperrors.NewWalletStoreFailedError(err)
	}
	return nil
}

// Get fetches a wallet by id. An unknown id yields WALLET_NOT_FOUND.
func (s *Store) Get(ctx context.Context, id string) (*Wallet, error) {
	raw, err := s.redis.Get(ctx, keyPrefix+id)
	if database.IsNotFound(err) {
		return nil, apperrors.NewWalletNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewWalletStoreFailedError(err)
	}
	var rec models.WalletRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, apperrors.NewWalletStoreFailedError(err)
	}
	return FromRecord(rec), nil
}

// List returns every registered wallet ordered by creation time.
func (s *Store) List(ctx context.Context) ([]models.WalletRecord, error) {
	keys, err := s.redis.Keys(ctx, keyPrefix+"*")
	if err != nil {
		return nil, apperrors.NewWalletStoreFailedError(err)
	}
	out := make([]models.WalletRecord, 0, len(keys))
	for _, k := range keys {
		w, err := s.Get(ctx, strings.TrimPrefix(k, keyPrefix))
		if err != nil {
			return nil, err
		}
		out = append(out, w.WalletRecord)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

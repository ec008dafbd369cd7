package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/bonesy512/landhub/internal/pkg/cache"
)

const distanceCacheTTL = 24 * time.Hour

// Service fronts the distance client with a Redis cache. Cache misses and
// cache write failures degrade to direct lookups.
type Service struct {
	client  *Client
	auditor *Auditor
}

func NewService(client *Client, auditor *Auditor) *Service {
	return &Service{client: client, auditor: auditor}
}

// Auditor exposes the audit collaborator so callers can log its failures.
func (s *Service) Auditor() *Auditor {
	return s.auditor
}

func distanceCacheKey(origins, destination string) string {
	return fmt.Sprintf("distance:%s:%s", origins, destination)
}

// Lookup resolves a distance, serving from cache when possible. The bool
// reports a cache hit.
func (s *Service) Lookup(ctx context.Context, origins, destination string) (*DistanceResult, bool, error) {
	key := distanceCacheKey(origins, destination)
	if cached, err := cache.Get(key); err == nil && cached != "" {
		var result DistanceResult
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			return &result, true, nil
		}
	}

	result, err := s.client.DistanceToCity(ctx, origins, destination)
	if err != nil {
		return nil, false, err
	}

	if encoded, err := json.Marshal(result); err == nil {
		if err := cache.Set(key, string(encoded), distanceCacheTTL); err != nil {
			log.Warnf("distance cache write failed for %s: %v", key, err)
		}
	}

	return result, false, nil
}

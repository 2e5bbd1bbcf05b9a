package mutant

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ntons/log-go"

	"github.com/ntons/mutant/mutantd/internal/dna"
	"github.com/ntons/mutant/mutantd/internal/redis"
)

const (
	cacheKeyPrefix = "mutant:dna:"
	statsCacheKey  = "mutant:stats"
)

func getCacheKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

type cachedClassification struct {
	Classification string `msgpack:"c"`
}

type stats struct {
	CountMutantDna int64   `json:"count_mutant_dna" msgpack:"m"`
	CountHumanDna  int64   `json:"count_human_dna" msgpack:"h"`
	Ratio          float64 `json:"ratio" msgpack:"-"`
}

func newStats(mutants, humans int64) *stats {
	s := &stats{CountMutantDna: mutants, CountHumanDna: humans}
	if humans > 0 {
		s.Ratio = float64(mutants) / float64(humans)
	}
	return s
}

// A nil cache misses everything. Errors are logged and treated as misses.
type cache struct {
	cli      redis.Client
	ttl      time.Duration
	statsTTL time.Duration
}

func (c *cache) getClassification(
	ctx context.Context, key string) (_ dna.Classification, ok bool) {
	if c == nil {
		return
	}
	s, err := c.cli.Get(ctx, getCacheKey(key)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warnf("failed to get from redis: %v", err)
		}
		return
	}
	var v cachedClassification
	if err = decodeValue(s, &v); err != nil {
		log.Warnf("failed to decode cached classification: %v", err)
		return
	}
	cl, err := dna.ParseClassification(v.Classification)
	if err != nil {
		log.Warnf("bad cached classification: %v", err)
		return
	}
	return cl, true
}

func (c *cache) setClassification(
	ctx context.Context, key string, cl dna.Classification) {
	if c == nil {
		return
	}
	s, err := encodeValue(&cachedClassification{Classification: cl.String()})
	if err != nil {
		log.Warnf("failed to encode classification: %v", err)
		return
	}
	if err = c.cli.Set(ctx, getCacheKey(key), s, c.ttl).Err(); err != nil {
		log.Warnf("failed to set to redis: %v", err)
	}
}

func (c *cache) getStats(ctx context.Context) (_ *stats, ok bool) {
	if c == nil {
		return
	}
	s, err := c.cli.Get(ctx, statsCacheKey).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warnf("failed to get from redis: %v", err)
		}
		return
	}
	var v stats
	if err = decodeValue(s, &v); err != nil {
		log.Warnf("failed to decode cached stats: %v", err)
		return
	}
	return newStats(v.CountMutantDna, v.CountHumanDna), true
}

func (c *cache) setStats(ctx context.Context, v *stats) {
	if c == nil {
		return
	}
	s, err := encodeValue(v)
	if err != nil {
		log.Warnf("failed to encode stats: %v", err)
		return
	}
	if err = c.cli.Set(ctx, statsCacheKey, s, c.statsTTL).Err(); err != nil {
		log.Warnf("failed to set to redis: %v", err)
	}
}

func (c *cache) invalidateStats(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.cli.Del(ctx, statsCacheKey).Err(); err != nil {
		log.Warnf("failed to del from redis: %v", err)
	}
}

func (c *cache) Close() error {
	if c == nil {
		return nil
	}
	return c.cli.Close()
}

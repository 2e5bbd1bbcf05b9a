package redis

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sigurn/crc16"

	"github.com/ntons/mutant/mutantd/internal/util"
)

type clusterOptions struct {
	hashTag bool
}

type ClusterOption interface {
	apply(o *clusterOptions)
}

type funcClusterOption struct {
	fn func(o *clusterOptions)
}

func (f funcClusterOption) apply(o *clusterOptions) {
	if f.fn != nil {
		f.fn(o)
	}
}

// only the part between the first {} of a key is hashed when present
func WithHashTag() ClusterOption {
	return funcClusterOption{func(o *clusterOptions) { o.hashTag = true }}
}

var _ Client = (*Cluster)(nil)

// Cluster shards keys over independent nodes by crc16 of the key.
type Cluster struct {
	p []Client
	o clusterOptions
}

func DialCluster(
	ctx context.Context, urls []string, opts ...ClusterOption) (
	_ *Cluster, err error) {
	ropts := make([]*redis.Options, len(urls))
	for i, url := range urls {
		if ropts[i], err = redis.ParseURL(url); err != nil {
			return
		}
	}
	clients := make([]Client, 0, len(ropts))
	defer func() {
		if err != nil {
			for _, cli := range clients {
				cli.Close()
			}
		}
	}()
	for _, ropt := range ropts {
		rdb := redis.NewClient(ropt)
		clients = append(clients, rdb)
		if err = rdb.Ping(ctx).Err(); err != nil {
			return
		}
	}
	return NewCluster(clients, opts...)
}

// NewCluster shards over already connected clients.
func NewCluster(clients []Client, opts ...ClusterOption) (*Cluster, error) {
	if len(clients) == 0 {
		return nil, fmt.Errorf("one node at least")
	} else if len(clients) > math.MaxUint16 {
		return nil, fmt.Errorf("%d node at most", math.MaxUint16)
	}
	cluster := &Cluster{p: clients}
	for _, opt := range opts {
		opt.apply(&cluster.o)
	}
	return cluster, nil
}

func (cluster *Cluster) Close() error {
	for _, cli := range cluster.p {
		cli.Close()
	}
	cluster.p = nil
	return nil
}

func (cluster *Cluster) Get(ctx context.Context, key string) *redis.StringCmd {
	return cluster.hashTo(key).Get(ctx, key)
}

func (cluster *Cluster) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	return cluster.hashTo(key).Set(ctx, key, value, expiration)
}

// Del over several shards returns the summed count, or the first error.
func (cluster *Cluster) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if len(keys) == 1 {
		return cluster.hashTo(keys[0]).Del(ctx, keys...)
	}
	var n int64
	for i, keys := range cluster.hashKeys(keys) {
		if len(keys) == 0 {
			continue
		}
		cmd := cluster.p[i].Del(ctx, keys...)
		if cmd.Err() != nil {
			return cmd
		}
		n += cmd.Val()
	}
	cmd := redis.NewIntCmd(ctx, "del")
	cmd.SetVal(n)
	return cmd
}

func (cluster *Cluster) HGetAll(ctx context.Context, key string) *redis.StringStringMapCmd {
	return cluster.hashTo(key).HGetAll(ctx, key)
}

func (cluster *Cluster) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	return cluster.hashTo(key).HSet(ctx, key, values...)
}

func (cluster *Cluster) HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd {
	return cluster.hashTo(key).HDel(ctx, key, fields...)
}

var xmodem = crc16.MakeTable(crc16.CRC16_XMODEM)

func (cluster *Cluster) hashKey(key string) uint16 {
	if cluster.o.hashTag {
		if i := strings.IndexByte(key, '{'); i >= 0 && i < len(key)-2 {
			if j := strings.IndexByte(key[i+1:], '}'); j > 0 {
				key = key[i+1 : i+1+j]
			}
		}
	}
	return crc16.Checksum(
		util.StringToBytes(key), xmodem) % uint16(len(cluster.p))
}

func (cluster *Cluster) hashKeys(keys []string) [][]string {
	hashedKeys := make([][]string, len(cluster.p))
	for _, key := range keys {
		n := cluster.hashKey(key)
		hashedKeys[n] = append(hashedKeys[n], key)
	}
	return hashedKeys
}

func (cluster *Cluster) hashTo(key string) Client {
	return cluster.p[cluster.hashKey(key)]
}

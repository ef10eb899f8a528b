package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/studyforge/curriculum-backend/internal/platform/envutil"
	"github.com/studyforge/curriculum-backend/internal/platform/logger"
)

// ReportCache keeps the latest validation report per subject so the API can
// serve it without recomputing. The cache is optional: callers treat a nil
// cache as disabled.
type ReportCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewReportCache(baseLog *logger.Logger) (*ReportCache, error) {
	addr := strings.TrimSpace(envutil.String("REDIS_ADDR", ""))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := time.Duration(envutil.Int("REPORT_CACHE_TTL_SECONDS", 86400)) * time.Second
	return &ReportCache{
		log: baseLog.With("service", "ReportCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func key(subjectID uuid.UUID) string {
	return "curriculum:report:" + subjectID.String()
}

func (c *ReportCache) Put(ctx context.Context, subjectID uuid.UUID, report any) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return c.rdb.Set(ctx, key(subjectID), raw, c.ttl).Err()
}

// Get returns the cached report bytes, or nil when absent.
func (c *ReportCache) Get(ctx context.Context, subjectID uuid.UUID) ([]byte, error) {
	raw, err := c.rdb.Get(ctx, key(subjectID)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *ReportCache) Close() error {
	return c.rdb.Close()
}

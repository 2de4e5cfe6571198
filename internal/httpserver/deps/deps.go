package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/webmark/webmark/internal/broker"
	"github.com/webmark/webmark/internal/logger"
	"github.com/webmark/webmark/internal/store"
)

type Deps struct {
	Logger        logger.Logger
	StartTime     time.Time
	Version       string
	Commit        string
	BuildDate     string
	GoVersion     string
	TimeNow       func() time.Time // for testing, defaults to time.Now
	AllowedHosts  []string         // Host headers allowed to access the server
	AllowedCIDRS  []string         // IPs allowed to access admin endpoints
	TrustProxy    bool             // true if running behind a trusted reverse proxy
	RedisClient   *redis.Client    // Redis client connection (nil in memory-only runs)
	Store         *store.Store     // Authoritative highlight record store
	Broker        *broker.Broker   // Sync coordinator between contexts and the store
	BackupTrigger chan struct{}    // Channel to trigger an immediate backup (nil if auto-backup disabled)
}

package services

import (
	"context"
	"time"

	"github.com/NomadCrew/customer-feedback-portal/logger"
	"github.com/NomadCrew/customer-feedback-portal/store"
	"github.com/NomadCrew/customer-feedback-portal/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DatabasePinger is satisfied by *pgxpool.Pool.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// RedisPinger is satisfied by every go-redis client.
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

type HealthService struct {
	list        store.ListStore
	listName    string
	backend     string
	dbPool      DatabasePinger
	redisClient RedisPinger
	version     string
	startTime   time.Time
	log         *zap.SugaredLogger
}

// HealthServiceConfig lists what readiness checks probe. DB and Redis are
// optional.
type HealthServiceConfig struct {
	List     store.ListStore
	ListName string
	Backend  string
	DB       DatabasePinger
	Redis    RedisPinger
	Version  string
}

func NewHealthService(cfg HealthServiceConfig) *HealthService {
	return &HealthService{
		list:        cfg.List,
		listName:    cfg.ListName,
		backend:     cfg.Backend,
		dbPool:      cfg.DB,
		redisClient: cfg.Redis,
		version:     cfg.Version,
		startTime:   time.Now(),
		log:         logger.GetLogger(),
	}
}

// CheckLiveness reports that the process is serving requests.
func (h *HealthService) CheckLiveness() types.HealthCheck {
	return types.HealthCheck{
		Status:      types.HealthStatusUp,
		Components:  map[string]types.HealthComponent{},
		Version:     h.version,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		ListBackend: h.backend,
	}
}

// CheckHealth probes the target list and any configured database or Redis.
// An unreachable list is DOWN; an unreachable Redis only degrades service
// because rate limiting fails open.
func (h *HealthService) CheckHealth(ctx context.Context) types.HealthCheck {
	components := make(map[string]types.HealthComponent)
	overallStatus := types.HealthStatusUp

	listStatus := h.checkList(ctx)
	components["list"] = listStatus
	if listStatus.Status == types.HealthStatusDown {
		overallStatus = types.HealthStatusDown
	} else if listStatus.Status == types.HealthStatusDegraded {
		overallStatus = types.HealthStatusDegraded
	}

	if h.dbPool != nil {
		dbStatus := h.checkDatabase(ctx)
		components["database"] = dbStatus
		if dbStatus.Status == types.HealthStatusDown {
			overallStatus = types.HealthStatusDown
		}
	}

	if h.redisClient != nil {
		redisStatus := h.checkRedis(ctx)
		components["redis"] = redisStatus
		if redisStatus.Status != types.HealthStatusUp && overallStatus == types.HealthStatusUp {
			overallStatus = types.HealthStatusDegraded
		}
	}

	return types.HealthCheck{
		Status:      overallStatus,
		Components:  components,
		Version:     h.version,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		ListBackend: h.backend,
	}
}

func (h *HealthService) checkList(ctx context.Context) types.HealthComponent {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	fields, err := h.list.Fields(ctx, h.listName)
	if err != nil {
		h.log.Errorw("List health check failed", "list", h.listName, "error", err)
		return types.HealthComponent{
			Status:  types.HealthStatusDown,
			Details: "List schema unavailable",
		}
	}
	if len(fields) == 0 {
		return types.HealthComponent{
			Status:  types.HealthStatusDegraded,
			Details: "List has no fields",
		}
	}

	return types.HealthComponent{Status: types.HealthStatusUp}
}

func (h *HealthService) checkDatabase(ctx context.Context) types.HealthComponent {
	if err := h.dbPool.Ping(ctx); err != nil {
		h.log.Errorw("Database health check failed", "error", err)
		return types.HealthComponent{
			Status:  types.HealthStatusDown,
			Details: "Database connection failed",
		}
	}

	return types.HealthComponent{Status: types.HealthStatusUp}
}

func (h *HealthService) checkRedis(ctx context.Context) types.HealthComponent {
	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		h.log.Errorw("Redis health check failed", "error", err)
		return types.HealthComponent{
			Status:  types.HealthStatusDown,
			Details: "Redis connection failed",
		}
	}

	return types.HealthComponent{Status: types.HealthStatusUp}
}

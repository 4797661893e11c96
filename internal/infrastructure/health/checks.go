package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sys/unix"

	"github.com/healthrisk/risk-api/internal/core/domain"
	"github.com/healthrisk/risk-api/internal/core/ports"
)

// Pinger is implemented by every credential store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function such as (*sql.DB).PingContext to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// ── database ──

type DatabaseCheck struct {
	db Pinger
}

func NewDatabaseCheck(db Pinger) *DatabaseCheck {
	return &DatabaseCheck{db: db}
}

func (c *DatabaseCheck) Name() string   { return "database" }
func (c *DatabaseCheck) Tags() []string { return []string{TagReady, TagDB} }

func (c *DatabaseCheck) Check(ctx context.Context) Result {
	if err := c.db.Ping(ctx); err != nil {
		return Result{Status: Unhealthy, Description: "credential store unreachable", Err: err}
	}
	return Result{Status: Healthy, Description: "credential store reachable"}
}

// ── redis ──

type RedisCheck struct {
	client redis.Cmdable
}

func NewRedisCheck(client redis.Cmdable) *RedisCheck {
	return &RedisCheck{client: client}
}

func (c *RedisCheck) Name() string   { return "redis" }
func (c *RedisCheck) Tags() []string { return []string{TagReady} }

// Check reports Degraded on failure; the rate limiter fails open without
// redis.
func (c *RedisCheck) Check(ctx context.Context) Result {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return Result{Status: Degraded, Description: "redis unreachable", Err: err}
	}
	return Result{Status: Healthy, Description: "redis reachable"}
}

// ── ml_model ──

type ModelCheck struct {
	predictor ports.Predictor
	source    ports.ArtifactSource
	path      string
	now       func() time.Time
}

func NewModelCheck(predictor ports.Predictor, source ports.ArtifactSource, path string) *ModelCheck {
	return &ModelCheck{predictor: predictor, source: source, path: path, now: time.Now}
}

func (c *ModelCheck) Name() string   { return "ml_model" }
func (c *ModelCheck) Tags() []string { return []string{TagReady, TagML} }

func (c *ModelCheck) Check(ctx context.Context) Result {
	checked := c.now().UTC()

	info, err := c.source.Stat(ctx, c.path)
	if err != nil {
		desc := "error checking model artifact"
		if errors.Is(err, domain.ErrModelNotFound) {
			desc = "model artifact not found at expected location"
		}
		return Result{
			Status:      Unhealthy,
			Description: desc,
			Err:         err,
			Data:        map[string]any{"modelPath": c.path, "lastChecked": checked},
		}
	}

	data := map[string]any{
		"modelPath":    info.Location,
		"sizeKb":       info.Size / 1024,
		"lastModified": info.LastModified.UTC(),
		"lastChecked":  checked,
		"loaded":       c.predictor.Loaded(),
	}
	if !c.predictor.Loaded() {
		return Result{Status: Unhealthy, Description: "model artifact present but not loaded", Data: data}
	}
	return Result{Status: Healthy, Description: "model loaded and artifact accessible", Data: data}
}

// ── disk_space ──

// DefaultMinFreeMB is the free space floor for the disk check.
const DefaultMinFreeMB = 1024

type DiskCheck struct {
	path      string
	minFreeMB uint64
	freeBytes func(path string) (uint64, error)
}

func NewDiskCheck(path string, minFreeMB uint64) *DiskCheck {
	if path == "" {
		path = "/"
	}
	if minFreeMB == 0 {
		minFreeMB = DefaultMinFreeMB
	}
	return &DiskCheck{path: path, minFreeMB: minFreeMB, freeBytes: statfsFree}
}

func (c *DiskCheck) Name() string   { return "disk_space" }
func (c *DiskCheck) Tags() []string { return []string{TagReady} }

func (c *DiskCheck) Check(_ context.Context) Result {
	free, err := c.freeBytes(c.path)
	if err != nil {
		return Result{Status: Unhealthy, Description: "unable to stat filesystem", Err: err}
	}
	freeMB := free / (1024 * 1024)
	data := map[string]any{"path": c.path, "freeMb": freeMB, "minimumFreeMb": c.minFreeMB}
	if freeMB < c.minFreeMB {
		return Result{
			Status:      Unhealthy,
			Description: fmt.Sprintf("minimum configured megabytes for disk %s is %d but actual free space is %d", c.path, c.minFreeMB, freeMB),
			Data:        data,
		}
	}
	return Result{Status: Healthy, Data: data}
}

func statfsFree(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return uint64(st.Bavail) * uint64(st.Bsize), nil
}

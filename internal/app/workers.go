package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/dok75/clinic_backend/internal/service/appointment"
)

// WorkerModule registers all NATS event workers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc    fx.Lifecycle
	NC    *nats.Conn
	Redis *redis.Client
}

func RegisterWorkers(p WorkerParams) {
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			startStatsWorker(p.NC, p.Redis)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// Drain handled by ProvideNatsClient
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// stats_worker
// ---------------------------------------------------------------------------

// startStatsWorker keeps the per-clinic appointment counter hashes in step
// with lifecycle events. Creation and deletion adjust an existing hash in
// place; status changes drop it, since the event does not carry the bucket
// the appointment came from. The Stats reader rebuilds a missing hash from
// the database. Subjects look like "clinic.appointment.<event>.<id>".
func startStatsWorker(nc *nats.Conn, rdb *redis.Client) {
	_, err := nc.Subscribe("clinic.appointment.*.*", func(msg *nats.Msg) {
		parts := strings.Split(msg.Subject, ".")
		if len(parts) < 4 {
			return
		}
		event := parts[2]

		var ev appointment.Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			slog.Warn("stats_worker: bad event payload", "subject", msg.Subject, "err", err)
			return
		}
		if ev.ClinicID == 0 {
			return
		}

		ctx := context.Background()
		key := appointment.StatsCacheKey(ev.ClinicID)

		switch event {
		case "created", "deleted":
			// Only adjust a hash the reader has already built; a partial
			// hash started here would undercount everything else.
			n, err := rdb.Exists(ctx, key).Result()
			if err != nil || n == 0 {
				return
			}
			delta := int64(1)
			if event == "deleted" {
				delta = -1
			}
			pipe := rdb.Pipeline()
			pipe.HIncrBy(ctx, key, "total", delta)
			pipe.HIncrBy(ctx, key, string(ev.Status), delta)
			pipe.Expire(ctx, key, appointment.StatsCacheTTL)
			if _, err := pipe.Exec(ctx); err != nil {
				slog.Warn("stats_worker: redis update failed", "clinic_id", ev.ClinicID, "err", err)
			}
		case "confirmed", "completed", "cancelled":
			if err := rdb.Del(ctx, key).Err(); err != nil {
				slog.Warn("stats_worker: redis invalidate failed", "clinic_id", ev.ClinicID, "err", err)
			}
		}
	})
	if err != nil {
		slog.Error("stats_worker: subscribe failed", "err", err)
		return
	}

	slog.Info("stats_worker: started")
}

package appointment

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/dok75/clinic_backend/internal/model"
)

// StatsCacheTTL caps staleness of the cached counters; readers rebuild the
// hash from the database when it is gone.
const StatsCacheTTL = 24 * time.Hour

const statsFieldTotal = "total"

// StatsCacheKey names the Redis hash holding a clinic's appointment
// counters. The lifecycle event worker and the Stats reader share it.
func StatsCacheKey(clinicID uint) string {
	return "stats:appointments:" + strconv.FormatUint(uint64(clinicID), 10)
}

// statsFromHash rebuilds a Stats snapshot from the cached hash fields.
// Today's count is deliberately absent: it moves with the clock and is
// always counted fresh.
func statsFromHash(vals map[string]string) (Stats, bool) {
	if len(vals) == 0 {
		return Stats{}, false
	}
	field := func(name string) int64 {
		n, _ := strconv.ParseInt(vals[name], 10, 64)
		return n
	}
	return Stats{
		Total:     field(statsFieldTotal),
		Pending:   field(string(model.StatusPending)),
		Confirmed: field(string(model.StatusConfirmed)),
		Completed: field(string(model.StatusCompleted)),
		Cancelled: field(string(model.StatusCancelled)),
	}, true
}

func statsToHash(st *Stats) map[string]any {
	return map[string]any{
		statsFieldTotal:               st.Total,
		string(model.StatusPending):   st.Pending,
		string(model.StatusConfirmed): st.Confirmed,
		string(model.StatusCompleted): st.Completed,
		string(model.StatusCancelled): st.Cancelled,
	}
}

// cacheableClinic reports the clinic whose cached counters match the
// actor's view exactly. Receptionists see their whole clinic, so the
// per-clinic hash is authoritative for them; doctors see only their own
// appointments and admins see every clinic, so neither can use it.
func (s *appointmentService) cacheableClinic(actor *model.User) *uint {
	if s.rdb == nil || actor.Role != model.RoleReceptionist {
		return nil
	}
	return s.engine.Scope().ClinicOf(actor)
}

func (s *appointmentService) Stats(ctx context.Context, actor *model.User) (*Stats, error) {
	scoped := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&model.Appointment{}).Scopes(s.engine.AppointmentScope(actor))
	}

	clinic := s.cacheableClinic(actor)
	if clinic != nil {
		vals, err := s.rdb.HGetAll(ctx, StatsCacheKey(*clinic)).Result()
		if err == nil {
			if st, hit := statsFromHash(vals); hit {
				if err := s.countToday(scoped, &st); err != nil {
					return nil, err
				}
				return &st, nil
			}
		}
	}

	var st Stats
	if err := scoped().Count(&st.Total).Error; err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}

	type row struct {
		Status model.AppointmentStatus
		N      int64
	}
	var rows []row
	if err := scoped().Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count appointments by status: %w", err)
	}
	for _, r := range rows {
		switch r.Status {
		case model.StatusPending:
			st.Pending = r.N
		case model.StatusConfirmed:
			st.Confirmed = r.N
		case model.StatusCompleted:
			st.Completed = r.N
		case model.StatusCancelled:
			st.Cancelled = r.N
		}
	}

	if err := s.countToday(scoped, &st); err != nil {
		return nil, err
	}

	if clinic != nil {
		s.refillStatsCache(ctx, *clinic, &st)
	}
	return &st, nil
}

func (s *appointmentService) countToday(scoped func() *gorm.DB, st *Stats) error {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	err := scoped().
		Where("appointments.appointment_date >= ? AND appointments.appointment_date < ?", from, from.Add(24*time.Hour)).
		Count(&st.Today).Error
	if err != nil {
		return fmt.Errorf("count today's appointments: %w", err)
	}
	return nil
}

// refillStatsCache writes a fresh snapshot. Best effort: a cache failure
// never fails the request.
func (s *appointmentService) refillStatsCache(ctx context.Context, clinicID uint, st *Stats) {
	key := StatsCacheKey(clinicID)
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, key, statsToHash(st))
	pipe.Expire(ctx, key, StatsCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("appointment stats cache refill failed", "clinic_id", clinicID, "err", err)
	}
}

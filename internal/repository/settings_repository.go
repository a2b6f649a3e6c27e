package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "strconv"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/salonhub/salon-booking-platform/internal/model"
)

// settingsCacheKey and settingsCacheTTL control the short-lived redis
// cache in front of system_config.  The snapshot semantics make brief
// staleness safe: every operation freezes the values it used into its
// own records, so a cached read can never change an in-flight
// transaction.
const (
    settingsCacheKey = "settings:snapshot"
    settingsCacheTTL = 30 * time.Second
)

// SettingsRepo reads and writes the system_config key/value table and
// assembles typed snapshots.  A nil redis client disables caching.
type SettingsRepo struct {
    db  *sql.DB
    rdb *redis.Client
}

// NewSettingsRepo returns a SettingsRepo.  rdb may be nil, in which
// case every snapshot hits the database.
func NewSettingsRepo(db *sql.DB, rdb *redis.Client) *SettingsRepo {
    return &SettingsRepo{db: db, rdb: rdb}
}

// Snapshot returns the current settings as one immutable value.
// Callers fetch it once per operation and pass it down; nothing
// re-reads config mid-transaction.
func (r *SettingsRepo) Snapshot(ctx context.Context) (model.Settings, error) {
    if r.rdb != nil {
        if raw, err := r.rdb.Get(ctx, settingsCacheKey).Bytes(); err == nil {
            var s model.Settings
            if json.Unmarshal(raw, &s) == nil {
                return s, nil
            }
        }
    }
    values, err := r.All(ctx)
    if err != nil {
        return model.Settings{}, err
    }
    s := model.Settings{
        ConvenienceFeePercent:      intVal(values, "convenience_fee_percent", 5),
        RMScorePerApproval:         intVal(values, "rm_score_per_approval", 10),
        BookingHoldMinutes:         int(intVal(values, "booking_hold_minutes", 15)),
        SlotGranularityMinutes:     int(intVal(values, "slot_granularity_minutes", 15)),
        BookingLookaheadDays:       int(intVal(values, "booking_lookahead_days", 30)),
        CancellationCutoffHours:    int(intVal(values, "cancellation_cutoff_hours", 24)),
        ActivationTokenTTLDays:     int(intVal(values, "activation_token_ttl_days", 7)),
        VendorRegistrationFeeCents: intVal(values, "vendor_registration_fee_cents", 500000),
    }
    if r.rdb != nil {
        if raw, err := json.Marshal(s); err == nil {
            _ = r.rdb.Set(ctx, settingsCacheKey, raw, settingsCacheTTL).Err()
        }
    }
    return s, nil
}

// All returns every config row as a string map.
func (r *SettingsRepo) All(ctx context.Context) (map[string]string, error) {
    rows, err := r.db.QueryContext(ctx, `SELECT cfg_key, cfg_value FROM system_config`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make(map[string]string)
    for rows.Next() {
        var k, v string
        if err := rows.Scan(&k, &v); err != nil {
            return nil, err
        }
        out[k] = v
    }
    return out, rows.Err()
}

// Set upserts one config value and drops the cached snapshot so the
// next operation observes the change.
func (r *SettingsRepo) Set(ctx context.Context, key, value string) error {
    _, err := r.db.ExecContext(ctx,
        `INSERT INTO system_config (cfg_key, cfg_value) VALUES (?, ?)
         ON DUPLICATE KEY UPDATE cfg_value = VALUES(cfg_value)`, key, value)
    if err != nil {
        return err
    }
    if r.rdb != nil {
        _ = r.rdb.Del(ctx, settingsCacheKey).Err()
    }
    return nil
}

func intVal(values map[string]string, key string, def int64) int64 {
    if raw, ok := values[key]; ok {
        if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
            return n
        }
    }
    return def
}

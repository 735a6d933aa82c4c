package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"camwatch/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// =============================================================================
// Registry
// =============================================================================

// ListActiveRegistry loads all active deployments joined with their
// camera hardware. The result is held in memory for the whole run.
func (s *PostgresStore) ListActiveRegistry(ctx context.Context) ([]models.RegistryEntry, error) {
	query := `
		SELECT d.id, d.camera_id, d.name, d.site, d.active, d.is_missing, d.missing_days, d.last_seen_at,
			c.id, c.serial, c.hw_version, c.fw_version, c.cl_version, c.updated_at
		FROM deployments d
		JOIN cameras c ON c.id = d.camera_id
		WHERE d.active
		ORDER BY c.serial`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.RegistryEntry
	for rows.Next() {
		var e models.RegistryEntry
		if err := rows.Scan(
			&e.Deployment.ID, &e.Deployment.CameraID, &e.Deployment.Name, &e.Deployment.Site,
			&e.Deployment.Active, &e.Deployment.IsMissing, &e.Deployment.MissingDays, &e.Deployment.LastSeenAt,
			&e.Camera.ID, &e.Camera.Serial, &e.Camera.HWVersion, &e.Camera.FWVersion,
			&e.Camera.CLVersion, &e.Camera.UpdatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// UpdateCameraVersions writes only the version fields that changed;
// nil arguments leave the stored value untouched.
func (s *PostgresStore) UpdateCameraVersions(ctx context.Context, cameraID uuid.UUID, hw, fw, cl *string) error {
	query := `
		UPDATE cameras SET
			hw_version = COALESCE($2, hw_version),
			fw_version = COALESCE($3, fw_version),
			cl_version = COALESCE($4, cl_version),
			updated_at = NOW()
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, query, cameraID, hw, fw, cl)
	return err
}

// MarkDeploymentSeen clears the missing flag and counter for a
// deployment that reported today.
func (s *PostgresStore) MarkDeploymentSeen(ctx context.Context, deploymentID uuid.UUID, seenAt time.Time) error {
	query := `
		UPDATE deployments SET
			is_missing = FALSE,
			missing_days = 0,
			last_seen_at = $2
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, query, deploymentID, seenAt)
	return err
}

// SweepUnseenDeployments bumps the missing-day counter for every active
// deployment that did not report on day, flagging those past threshold.
// Returns the number of deployments flagged missing.
func (s *PostgresStore) SweepUnseenDeployments(ctx context.Context, day time.Time, threshold int) (int64, error) {
	query := `
		UPDATE deployments SET
			missing_days = missing_days + 1,
			is_missing = (missing_days + 1 >= $2)
		WHERE active AND (last_seen_at IS NULL OR last_seen_at::date < $1::date)`

	tag, err := s.pool.Exec(ctx, query, day, threshold)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// =============================================================================
// Status Reports
// =============================================================================

// UpsertStatusReport writes the per-day report atomically on its
// natural key, so a same-day re-run overwrites instead of duplicating.
func (s *PostgresStore) UpsertStatusReport(ctx context.Context, r *models.StatusReport) error {
	query := `
		INSERT INTO status_reports (
			deployment_id, camera_id, report_date, battery, signal_level,
			network_links, image_queue, sd_images, sd_free_mb, reported_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		ON CONFLICT (deployment_id, report_date) DO UPDATE SET
			battery = EXCLUDED.battery,
			signal_level = EXCLUDED.signal_level,
			network_links = EXCLUDED.network_links,
			image_queue = EXCLUDED.image_queue,
			sd_images = EXCLUDED.sd_images,
			sd_free_mb = EXCLUDED.sd_free_mb,
			reported_at = EXCLUDED.reported_at,
			updated_at = NOW()
		RETURNING id`

	return s.pool.QueryRow(ctx, query,
		r.DeploymentID, r.CameraID, r.ReportDate, r.Battery, r.SignalLevel,
		r.NetworkLinks, r.ImageQueue, r.SDImages, r.SDFreeMB, r.ReportedAt,
	).Scan(&r.ID)
}

// =============================================================================
// Daily Snapshots
// =============================================================================

// GetSnapshotHistory returns up to limit snapshots strictly before
// date, oldest first. The current day's row never feeds its own math.
func (s *PostgresStore) GetSnapshotHistory(ctx context.Context, cameraID uuid.UUID, date time.Time, limit int) ([]models.DailySnapshot, error) {
	query := `
		SELECT id, camera_id, snapshot_date, sd_images, images_added, seven_day_avg,
			weekly_change, days_since_activity, activity_trend, anomaly, anomaly_type,
			anomaly_severity, note, created_at, updated_at
		FROM (
			SELECT * FROM daily_snapshots
			WHERE camera_id = $1 AND snapshot_date < $2::date
			ORDER BY snapshot_date DESC
			LIMIT $3
		) recent
		ORDER BY snapshot_date ASC`

	rows, err := s.pool.Query(ctx, query, cameraID, date, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []models.DailySnapshot
	for rows.Next() {
		var sn models.DailySnapshot
		if err := rows.Scan(
			&sn.ID, &sn.CameraID, &sn.SnapshotDate, &sn.SDImages, &sn.ImagesAdded, &sn.SevenDayAvg,
			&sn.WeeklyChange, &sn.DaysSinceActivity, &sn.Trend, &sn.Anomaly, &sn.AnomalyType,
			&sn.AnomalySeverity, &sn.Note, &sn.CreatedAt, &sn.UpdatedAt,
		); err != nil {
			return nil, err
		}
		snaps = append(snaps, sn)
	}
	return snaps, rows.Err()
}

// UpsertDailySnapshot overwrites on (snapshot_date, camera_id) so the
// trend engine is idempotent for a given day.
func (s *PostgresStore) UpsertDailySnapshot(ctx context.Context, sn *models.DailySnapshot) error {
	query := `
		INSERT INTO daily_snapshots (
			camera_id, snapshot_date, sd_images, images_added, seven_day_avg,
			weekly_change, days_since_activity, activity_trend, anomaly, anomaly_type,
			anomaly_severity, note, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		ON CONFLICT (snapshot_date, camera_id) DO UPDATE SET
			sd_images = EXCLUDED.sd_images,
			images_added = EXCLUDED.images_added,
			seven_day_avg = EXCLUDED.seven_day_avg,
			weekly_change = EXCLUDED.weekly_change,
			days_since_activity = EXCLUDED.days_since_activity,
			activity_trend = EXCLUDED.activity_trend,
			anomaly = EXCLUDED.anomaly,
			anomaly_type = EXCLUDED.anomaly_type,
			anomaly_severity = EXCLUDED.anomaly_severity,
			note = EXCLUDED.note,
			updated_at = NOW()
		RETURNING id`

	return s.pool.QueryRow(ctx, query,
		sn.CameraID, sn.SnapshotDate, sn.SDImages, sn.ImagesAdded, sn.SevenDayAvg,
		sn.WeeklyChange, sn.DaysSinceActivity, sn.Trend, sn.Anomaly, sn.AnomalyType,
		sn.AnomalySeverity, sn.Note,
	).Scan(&sn.ID)
}

// CountAnomalies returns how many of day's snapshots were flagged.
func (s *PostgresStore) CountAnomalies(ctx context.Context, day time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM daily_snapshots WHERE snapshot_date = $1::date AND anomaly`,
		day,
	).Scan(&n)
	return n, err
}

// CountInactive returns how many of day's snapshots report at least
// minDays without significant activity.
func (s *PostgresStore) CountInactive(ctx context.Context, day time.Time, minDays int) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM daily_snapshots WHERE snapshot_date = $1::date AND days_since_activity >= $2`,
		day, minDays,
	).Scan(&n)
	return n, err
}

// =============================================================================
// Collection Runs
// =============================================================================

func (s *PostgresStore) CreateCollectionRun(ctx context.Context, run *models.CollectionRun) error {
	query := `
		INSERT INTO collection_runs (
			run_date, status, started_at, cameras_processed, cameras_updated,
			snapshots_created, errors_count, warnings_count, completeness_score,
			alerts_generated, error_details, summary
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	return s.pool.QueryRow(ctx, query,
		run.RunDate, run.Status, run.StartedAt, run.CamerasProcessed, run.CamerasUpdated,
		run.SnapshotsCreated, run.ErrorsCount, run.WarningsCount, run.CompletenessScore,
		run.AlertsGenerated, run.ErrorDetails, run.Summary,
	).Scan(&run.ID)
}

func (s *PostgresStore) UpdateCollectionRun(ctx context.Context, run *models.CollectionRun) error {
	query := `
		UPDATE collection_runs SET
			status = $2, finished_at = $3, duration_seconds = $4, cameras_processed = $5,
			cameras_updated = $6, snapshots_created = $7, errors_count = $8, warnings_count = $9,
			completeness_score = $10, alerts_generated = $11, error_details = $12, summary = $13
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, query,
		run.ID, run.Status, run.FinishedAt, run.DurationSeconds, run.CamerasProcessed,
		run.CamerasUpdated, run.SnapshotsCreated, run.ErrorsCount, run.WarningsCount,
		run.CompletenessScore, run.AlertsGenerated, run.ErrorDetails, run.Summary,
	)
	return err
}

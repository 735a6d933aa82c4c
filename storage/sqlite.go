package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"camwatch/models"
)

// SQLiteStore keeps operational data next to the daemon: the command
// queue, a local mirror of run outcomes, and run log lines. It stays
// usable when Postgres is unreachable.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY,
		run_date TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		cameras_processed INTEGER DEFAULT 0,
		cameras_updated INTEGER DEFAULT 0,
		errors_count INTEGER DEFAULT 0,
		warnings_count INTEGER DEFAULT 0,
		summary TEXT
	);

	CREATE TABLE IF NOT EXISTS run_logs (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		timestamp DATETIME,
		level TEXT,
		message TEXT
	);

	CREATE TABLE IF NOT EXISTS commands (
		id INTEGER PRIMARY KEY,
		command TEXT,
		params JSON,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		processed_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_commands_pending ON commands(processed_at) WHERE processed_at IS NULL;
	CREATE INDEX IF NOT EXISTS idx_run_logs_run ON run_logs(run_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_date ON runs(run_date, started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// Run mirror
// =============================================================================

func (s *SQLiteStore) CreateRun(run *models.CollectionRun) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO runs (run_date, started_at, status)
		VALUES (?, ?, ?)`,
		run.RunDate.Format("2006-01-02"), run.StartedAt, run.Status)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) UpdateRun(id int64, run *models.CollectionRun) error {
	_, err := s.db.Exec(`
		UPDATE runs SET finished_at = ?, status = ?, cameras_processed = ?,
			cameras_updated = ?, errors_count = ?, warnings_count = ?, summary = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.CamerasProcessed,
		run.CamerasUpdated, run.ErrorsCount, run.WarningsCount, run.Summary, id)
	return err
}

func (s *SQLiteStore) GetRecentRuns(limit int) ([]models.CollectionRun, error) {
	rows, err := s.db.Query(`
		SELECT id, run_date, started_at, finished_at, status, cameras_processed,
			cameras_updated, errors_count, warnings_count, COALESCE(summary, '')
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.CollectionRun
	for rows.Next() {
		var run models.CollectionRun
		var dateStr string
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &dateStr, &run.StartedAt, &finished, &run.Status,
			&run.CamerasProcessed, &run.CamerasUpdated, &run.ErrorsCount,
			&run.WarningsCount, &run.Summary); err != nil {
			return nil, err
		}
		run.RunDate, _ = time.Parse("2006-01-02", dateStr)
		if finished.Valid {
			run.FinishedAt = &finished.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// =============================================================================
// Run logs
// =============================================================================

func (s *SQLiteStore) Log(runID *int64, level models.LogLevel, message string) error {
	_, err := s.db.Exec(`
		INSERT INTO run_logs (run_id, timestamp, level, message)
		VALUES (?, ?, ?, ?)`,
		runID, time.Now(), level, message)
	return err
}

// =============================================================================
// Commands
// =============================================================================

func (s *SQLiteStore) EnqueueCommand(cmd models.CommandType) error {
	_, err := s.db.Exec(`INSERT INTO commands (command) VALUES (?)`, cmd)
	return err
}

func (s *SQLiteStore) GetPendingCommands() ([]models.Command, error) {
	rows, err := s.db.Query(`
		SELECT id, command, COALESCE(params, '{}'), created_at
		FROM commands WHERE processed_at IS NULL ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cmds []models.Command
	for rows.Next() {
		var cmd models.Command
		if err := rows.Scan(&cmd.ID, &cmd.Command, &cmd.Params, &cmd.CreatedAt); err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, rows.Err()
}

func (s *SQLiteStore) MarkCommandProcessed(id int64) error {
	_, err := s.db.Exec(`UPDATE commands SET processed_at = ? WHERE id = ?`, time.Now(), id)
	return err
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ShopIntent/internal/domain/models"
	pkgch "ShopIntent/pkg/clickhouse"
	applogger "ShopIntent/pkg/logger"
)

const (
	sourceTable  = "shopintent.sessions_source"
	datasetTable = "shopintent.sessions_dataset"
	scoresTable  = "shopintent.purchase_scores"
)

// sessionColumns is the shared column list of the source and dataset tables.
const sessionColumns = `uid, session_date, revenue,
administrative, administrative_duration, informational, informational_duration,
productrelated, productrelated_duration, bouncerates, exitrates, pagevalues, specialday,
operatingsystems, browser, region, traffictype, visitortype, weekend`

// CHDatasetStore implements DatasetStore backed by ClickHouse.
type CHDatasetStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHDatasetStore(ch *pkgch.Client) *CHDatasetStore {
	return &CHDatasetStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHDatasetStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHDatasetStore) InitSchema(ctx context.Context) error {
	const sessionSchema = `(
        uid String,
        session_date Date,
        revenue Int8,
        administrative Float64,
        administrative_duration Float64,
        informational Float64,
        informational_duration Float64,
        productrelated Float64,
        productrelated_duration Float64,
        bouncerates Float64,
        exitrates Float64,
        pagevalues Float64,
        specialday Float64,
        operatingsystems String,
        browser String,
        region String,
        traffictype String,
        visitortype String,
        weekend String
    ) ENGINE = MergeTree() ORDER BY (session_date, uid)`

	stmts := []string{
		`CREATE DATABASE IF NOT EXISTS shopintent`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s %s`, sourceTable, sessionSchema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s %s`, datasetTable, sessionSchema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            uid String,
            session_date Date,
            model_name String,
            model_version String,
            score Float64,
            scored_at DateTime DEFAULT now()
        ) ENGINE = MergeTree() ORDER BY (session_date, model_name, uid)`, scoresTable),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init dataset schema: %w", err)
		}
	}
	return nil
}

func (s *CHDatasetStore) ReplaceSource(ctx context.Context, rows []models.SessionRow) error {
	start := time.Now()
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`TRUNCATE TABLE %s`, sourceTable)); err != nil {
		return fmt.Errorf("truncate source: %w", err)
	}
	if err := s.insertSessions(ctx, sourceTable, rows); err != nil {
		return err
	}
	if s.l != nil {
		s.l.Info("clickhouse replace_source ok",
			applogger.Int("rows", len(rows)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHDatasetStore) RebuildDataset(ctx context.Context, targetDate time.Time) error {
	start := time.Now()
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`TRUNCATE TABLE %s`, datasetTable)); err != nil {
		return fmt.Errorf("truncate dataset: %w", err)
	}
	q := fmt.Sprintf(`INSERT INTO %s (%s) SELECT %s FROM %s WHERE session_date <= ?`,
		datasetTable, sessionColumns, sessionColumns, sourceTable)
	if _, err := s.db.ExecContext(ctx, q, targetDate); err != nil {
		return fmt.Errorf("rebuild dataset: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse rebuild_dataset ok",
			applogger.Time("target_date", targetDate),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHDatasetStore) AppendDataset(ctx context.Context, targetDate time.Time) (int, error) {
	start := time.Now()
	var n int
	countQ := fmt.Sprintf(`SELECT count() FROM %s WHERE session_date = ?`, sourceTable)
	if err := s.db.QueryRowContext(ctx, countQ, targetDate).Scan(&n); err != nil {
		return 0, fmt.Errorf("count source day: %w", err)
	}
	if n == 0 {
		return 0, nil
	}
	q := fmt.Sprintf(`INSERT INTO %s (%s) SELECT %s FROM %s WHERE session_date = ?`,
		datasetTable, sessionColumns, sessionColumns, sourceTable)
	if _, err := s.db.ExecContext(ctx, q, targetDate); err != nil {
		return 0, fmt.Errorf("append dataset: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse append_dataset ok",
			applogger.Time("target_date", targetDate),
			applogger.Int("rows", n),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return n, nil
}

func (s *CHDatasetStore) FetchLabeledWindow(ctx context.Context, w models.DateWindow) ([]models.SessionRow, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s
        WHERE revenue >= 0 AND session_date >= ? AND session_date <= ?
        ORDER BY session_date ASC, uid ASC`, sessionColumns, datasetTable)
	rows, err := s.queryRows(ctx, q, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no labeled rows in [%s, %s]",
			models.ErrEmptyWindow, w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
	}
	return rows, nil
}

func (s *CHDatasetStore) FetchDay(ctx context.Context, day time.Time) ([]models.SessionRow, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s
        WHERE session_date = ?
        ORDER BY uid ASC`, sessionColumns, datasetTable)
	rows, err := s.queryRows(ctx, q, day)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows on %s", models.ErrEmptyWindow, day.Format("2006-01-02"))
	}
	return rows, nil
}

// WriteScores replaces the scores of one session date: a lightweight delete
// of the day, then a batch insert. Re-running a day never duplicates rows.
func (s *CHDatasetStore) WriteScores(ctx context.Context, day time.Time, scores []models.ScoreRecord) error {
	start := time.Now()
	del := fmt.Sprintf(`DELETE FROM %s WHERE session_date = ?`, scoresTable)
	if _, err := s.db.ExecContext(ctx, del, day); err != nil {
		return fmt.Errorf("delete day scores: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin scores insert: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (uid, session_date, model_name, model_version, score) VALUES (?, ?, ?, ?, ?)`,
		scoresTable))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare scores insert: %w", err)
	}
	for _, sc := range scores {
		if _, err := stmt.ExecContext(ctx, sc.UID, sc.SessionDate, sc.ModelName, sc.ModelVersion, sc.Score); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert score: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scores: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse write_scores ok",
			applogger.Time("session_date", day),
			applogger.Int("rows", len(scores)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHDatasetStore) FetchScores(ctx context.Context, day time.Time) ([]models.ScoreRecord, error) {
	q := fmt.Sprintf(`SELECT uid, session_date, model_name, model_version, score
        FROM %s WHERE session_date = ? ORDER BY uid ASC`, scoresTable)
	rows, err := s.db.QueryContext(ctx, q, day)
	if err != nil {
		return nil, fmt.Errorf("fetch scores: %w", err)
	}
	defer rows.Close()

	out := make([]models.ScoreRecord, 0, 256)
	for rows.Next() {
		var r models.ScoreRecord
		if err := rows.Scan(&r.UID, &r.SessionDate, &r.ModelName, &r.ModelVersion, &r.Score); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHDatasetStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHDatasetStore) insertSessions(ctx context.Context, table string, rows []models.SessionRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session insert: %w", err)
	}
	placeholders := `(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES %s`, table, sessionColumns, placeholders))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare session insert: %w", err)
	}
	for i := range rows {
		r := &rows[i]
		_, err := stmt.ExecContext(ctx,
			r.UID, r.SessionDate, r.Revenue,
			r.Administrative, r.AdministrativeDuration, r.Informational, r.InformationalDuration,
			r.ProductRelated, r.ProductRelatedDuration, r.BounceRates, r.ExitRates, r.PageValues, r.SpecialDay,
			r.OperatingSystems, r.Browser, r.Region, r.TrafficType, r.VisitorType, r.Weekend,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert session row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sessions: %w", err)
	}
	return nil
}

func (s *CHDatasetStore) queryRows(ctx context.Context, q string, args ...any) ([]models.SessionRow, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse session query error", applogger.Error(err))
		}
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := make([]models.SessionRow, 0, 1024)
	for rows.Next() {
		var r models.SessionRow
		if err := rows.Scan(
			&r.UID, &r.SessionDate, &r.Revenue,
			&r.Administrative, &r.AdministrativeDuration, &r.Informational, &r.InformationalDuration,
			&r.ProductRelated, &r.ProductRelatedDuration, &r.BounceRates, &r.ExitRates, &r.PageValues, &r.SpecialDay,
			&r.OperatingSystems, &r.Browser, &r.Region, &r.TrafficType, &r.VisitorType, &r.Weekend,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

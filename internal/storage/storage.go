// Package storage provides SQLite-backed persistence for tracking sessions,
// price observations, and price alerts.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/paihanhuang/shopping-agent/internal/models"
	_ "modernc.org/sqlite"
)

// ErrNotFound is wrapped by lookups given an unknown session id. Callers on
// the control surface distinguish it from IO failures with errors.Is.
var ErrNotFound = errors.New("session not found")

// Storage wraps a SQLite database for all persistence operations.
type Storage struct {
	db *sql.DB
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/shopping-agent/price_history.db.
func New(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "shopping-agent", "price_history.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	s := &Storage{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tracking_sessions (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			product_query    TEXT NOT NULL,
			started_at       INTEGER NOT NULL,
			ended_at         INTEGER,
			interval_minutes INTEGER NOT NULL,
			duration_hours   INTEGER,
			status           TEXT NOT NULL DEFAULT 'active'
		)`,
		`CREATE TABLE IF NOT EXISTS price_observations (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id    INTEGER NOT NULL REFERENCES tracking_sessions(id),
			observed_at   INTEGER NOT NULL,
			retailer      TEXT NOT NULL,
			product_url   TEXT,
			base_price    REAL,
			tax           REAL,
			shipping      REAL,
			total_price   REAL NOT NULL,
			cashback_note TEXT,
			card_note     TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS price_alerts (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id  INTEGER NOT NULL REFERENCES tracking_sessions(id),
			retailer    TEXT NOT NULL,
			old_price   REAL NOT NULL,
			new_price   REAL NOT NULL,
			change_pct  REAL NOT NULL,
			created_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_observations_session
			ON price_observations(session_id, retailer, observed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_session
			ON price_alerts(session_id, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// CreateSession persists a new active session and returns its id.
// A nil durationHours means the session runs until explicitly stopped.
func (s *Storage) CreateSession(query string, intervalMinutes int, durationHours *int) (int64, error) {
	sess := models.TrackingSession{
		ProductQuery:    query,
		StartedAt:       time.Now(),
		IntervalMinutes: intervalMinutes,
		DurationHours:   durationHours,
		Status:          models.StatusActive,
	}
	if err := sess.Validate(); err != nil {
		return 0, fmt.Errorf("invalid session: %w", err)
	}

	var duration any
	if sess.DurationHours != nil {
		duration = *sess.DurationHours
	}
	res, err := s.db.Exec(`
		INSERT INTO tracking_sessions
			(product_query, started_at, interval_minutes, duration_hours, status)
		VALUES (?,?,?,?,?)`,
		sess.ProductQuery, sess.StartedAt.UnixNano(), sess.IntervalMinutes, duration, sess.Status,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read session id: %w", err)
	}
	return id, nil
}

// AppendObservations persists one tick's parsed records for the session and
// returns the count written. Records are stamped with the session id and a
// shared batch timestamp before validation.
func (s *Storage) AppendObservations(sessionID int64, obs []models.PriceObservation) (int, error) {
	if len(obs) == 0 {
		return 0, nil
	}
	now := time.Now()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	count := 0
	for i := range obs {
		o := &obs[i]
		o.SessionID = sessionID
		if o.ObservedAt.IsZero() {
			o.ObservedAt = now
		}
		if err := o.Validate(); err != nil {
			return 0, fmt.Errorf("invalid observation: %w", err)
		}
		_, err := tx.Exec(`
			INSERT INTO price_observations
				(session_id, observed_at, retailer, product_url,
				 base_price, tax, shipping, total_price, cashback_note, card_note)
			VALUES (?,?,?,?,?,?,?,?,?,?)`,
			o.SessionID, o.ObservedAt.UnixNano(), o.Retailer, o.ProductURL,
			o.BasePrice, o.Tax, o.Shipping, o.TotalPrice, o.CashbackNote, o.CardNote,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert observation: %w", err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit observations: %w", err)
	}
	return count, nil
}

// CompleteSession marks the session completed and stamps its end time.
// Completing an already-completed session is a no-op, so the terminal
// transition happens exactly once.
func (s *Storage) CompleteSession(sessionID int64) error {
	res, err := s.db.Exec(`
		UPDATE tracking_sessions SET ended_at=?, status=?
		WHERE id=? AND status=?`,
		time.Now().UnixNano(), models.StatusCompleted, sessionID, models.StatusActive,
	)
	if err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		if _, err := s.Session(sessionID); err != nil {
			return err
		}
	}
	return nil
}

// RecordAlert persists one price alert.
func (s *Storage) RecordAlert(a models.PriceAlert) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO price_alerts
			(session_id, retailer, old_price, new_price, change_pct, created_at)
		VALUES (?,?,?,?,?,?)`,
		a.SessionID, a.Retailer, a.OldPrice, a.NewPrice, a.ChangePct, a.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

// Session loads one session by id.
func (s *Storage) Session(id int64) (*models.TrackingSession, error) {
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM tracking_sessions WHERE id = ?`, id)
	sess, err := scanSession(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return sess, nil
}

// RetailerStats aggregates the session's observations per retailer,
// cheapest minimum first.
func (s *Storage) RetailerStats(sessionID int64) ([]models.RetailerStats, error) {
	rows, err := s.db.Query(`
		SELECT retailer, COUNT(*), MIN(total_price), MAX(total_price), AVG(total_price)
		FROM price_observations
		WHERE session_id = ?
		GROUP BY retailer
		ORDER BY MIN(total_price) ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query retailer stats: %w", err)
	}
	defer rows.Close()

	var stats []models.RetailerStats
	for rows.Next() {
		var st models.RetailerStats
		if err := rows.Scan(&st.Retailer, &st.Checks, &st.MinPrice, &st.MaxPrice, &st.AvgPrice); err != nil {
			return nil, fmt.Errorf("failed to scan retailer stats: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// BestDeal returns the single lowest-priced observation in the session,
// or nil when the session has no observations.
func (s *Storage) BestDeal(sessionID int64) (*models.BestDeal, error) {
	row := s.db.QueryRow(`
		SELECT retailer, total_price, observed_at
		FROM price_observations
		WHERE session_id = ?
		ORDER BY total_price ASC, observed_at ASC
		LIMIT 1`, sessionID)

	var deal models.BestDeal
	var observedNano int64
	err := row.Scan(&deal.Retailer, &deal.Price, &observedNano)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get best deal: %w", err)
	}
	deal.ObservedAt = time.Unix(0, observedNano)
	return &deal, nil
}

// Retailers lists the distinct retailers observed in the session.
func (s *Storage) Retailers(sessionID int64) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT retailer FROM price_observations
		WHERE session_id = ? ORDER BY retailer`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query retailers: %w", err)
	}
	defer rows.Close()

	var retailers []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("failed to scan retailer: %w", err)
		}
		retailers = append(retailers, r)
	}
	return retailers, rows.Err()
}

// PriceSeries returns one retailer's total prices in observation order,
// oldest first.
func (s *Storage) PriceSeries(sessionID int64, retailer string) ([]models.PricePoint, error) {
	rows, err := s.db.Query(`
		SELECT retailer, total_price, observed_at
		FROM price_observations
		WHERE session_id = ? AND retailer = ?
		ORDER BY observed_at ASC, id ASC`, sessionID, retailer)
	if err != nil {
		return nil, fmt.Errorf("failed to query price series: %w", err)
	}
	defer rows.Close()
	return collectPricePoints(rows)
}

// RecentTotals returns every (retailer, total) sample in the session,
// newest first, for the alert detector's two-most-recent comparison.
func (s *Storage) RecentTotals(sessionID int64) ([]models.PricePoint, error) {
	rows, err := s.db.Query(`
		SELECT retailer, total_price, observed_at
		FROM price_observations
		WHERE session_id = ?
		ORDER BY observed_at DESC, id DESC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent totals: %w", err)
	}
	defer rows.Close()
	return collectPricePoints(rows)
}

// Observations returns every observation in the session, oldest first.
func (s *Storage) Observations(sessionID int64) ([]models.PriceObservation, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, observed_at, retailer, product_url,
		       base_price, tax, shipping, total_price, cashback_note, card_note
		FROM price_observations
		WHERE session_id = ?
		ORDER BY observed_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var obs []models.PriceObservation
	for rows.Next() {
		var o models.PriceObservation
		var observedNano int64
		err := rows.Scan(
			&o.ID, &o.SessionID, &observedNano, &o.Retailer, &o.ProductURL,
			&o.BasePrice, &o.Tax, &o.Shipping, &o.TotalPrice, &o.CashbackNote, &o.CardNote,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		o.ObservedAt = time.Unix(0, observedNano)
		obs = append(obs, o)
	}
	return obs, rows.Err()
}

// Alerts returns the session's alerts, oldest first.
func (s *Storage) Alerts(sessionID int64) ([]models.PriceAlert, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, retailer, old_price, new_price, change_pct, created_at
		FROM price_alerts
		WHERE session_id = ?
		ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.PriceAlert
	for rows.Next() {
		var a models.PriceAlert
		var createdNano int64
		err := rows.Scan(&a.ID, &a.SessionID, &a.Retailer, &a.OldPrice, &a.NewPrice, &a.ChangePct, &createdNano)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.CreatedAt = time.Unix(0, createdNano)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// AlertCount returns the number of alerts recorded for the session.
func (s *Storage) AlertCount(sessionID int64) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM price_alerts WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return n, nil
}

// RecentSessions lists the newest sessions with their observation counts.
func (s *Storage) RecentSessions(limit int) ([]models.SessionOverview, error) {
	rows, err := s.db.Query(`
		SELECT `+prefixedSessionCols+`, COUNT(o.id)
		FROM tracking_sessions s
		LEFT JOIN price_observations o ON o.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC, s.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var overviews []models.SessionOverview
	for rows.Next() {
		var ov models.SessionOverview
		var startedNano int64
		var endedNano, durationHours sql.NullInt64
		err := rows.Scan(
			&ov.ID, &ov.ProductQuery, &startedNano, &endedNano,
			&ov.IntervalMinutes, &durationHours, &ov.Status, &ov.Observations,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		ov.StartedAt = time.Unix(0, startedNano)
		if endedNano.Valid {
			t := time.Unix(0, endedNano.Int64)
			ov.EndedAt = &t
		}
		if durationHours.Valid {
			d := int(durationHours.Int64)
			ov.DurationHours = &d
		}
		overviews = append(overviews, ov)
	}
	return overviews, rows.Err()
}

const sessionCols = `id, product_query, started_at, ended_at, interval_minutes, duration_hours, status`

const prefixedSessionCols = `s.id, s.product_query, s.started_at, s.ended_at, s.interval_minutes, s.duration_hours, s.status`

func scanSession(scan func(...any) error) (*models.TrackingSession, error) {
	var sess models.TrackingSession
	var startedNano int64
	var endedNano, durationHours sql.NullInt64
	err := scan(
		&sess.ID, &sess.ProductQuery, &startedNano, &endedNano,
		&sess.IntervalMinutes, &durationHours, &sess.Status,
	)
	if err != nil {
		return nil, err
	}
	sess.StartedAt = time.Unix(0, startedNano)
	if endedNano.Valid {
		t := time.Unix(0, endedNano.Int64)
		sess.EndedAt = &t
	}
	if durationHours.Valid {
		d := int(durationHours.Int64)
		sess.DurationHours = &d
	}
	return &sess, nil
}

func collectPricePoints(rows *sql.Rows) ([]models.PricePoint, error) {
	var points []models.PricePoint
	for rows.Next() {
		var p models.PricePoint
		var observedNano int64
		if err := rows.Scan(&p.Retailer, &p.Price, &observedNano); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		p.ObservedAt = time.Unix(0, observedNano)
		points = append(points, p)
	}
	return points, rows.Err()
}

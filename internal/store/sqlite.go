package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/okhose/annals/internal/logging"
	"github.com/okhose/annals/internal/model"
)

// SQLite is a Store backed by a single SQLite database file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if necessary) the database at path and applies
// migrations.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL improves concurrent read behavior
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logging.Default().Debug().Str("path", path).Msg("store initialized")
	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS claims (
		id TEXT PRIMARY KEY,
		location_id TEXT NOT NULL,
		sub_location_id TEXT,
		category TEXT NOT NULL,
		raw_text TEXT NOT NULL,
		confidence REAL NOT NULL,
		status TEXT NOT NULL,
		source_type TEXT NOT NULL,
		source_ref TEXT NOT NULL,
		article_date DATETIME,
		was_relative INTEGER NOT NULL DEFAULT 0,
		date_precision TEXT NOT NULL,
		date_display TEXT NOT NULL,
		date_edtf TEXT,
		sort_start INTEGER NOT NULL,
		sort_end INTEGER NOT NULL,
		century_bias INTEGER NOT NULL DEFAULT 0,
		conflict_id TEXT,
		conflict_resolved INTEGER NOT NULL DEFAULT 0,
		is_primary INTEGER NOT NULL DEFAULT 1,
		merged_from_ids TEXT,
		reviewed_by TEXT,
		rejection_reason TEXT,
		seq INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_claims_identity
		ON claims(location_id, source_ref, raw_text);
	CREATE INDEX IF NOT EXISTS idx_claims_location ON claims(location_id, status);
	CREATE INDEX IF NOT EXISTS idx_claims_conflict ON claims(conflict_id);

	CREATE TABLE IF NOT EXISTS conflicts (
		id TEXT PRIMARY KEY,
		location_id TEXT NOT NULL,
		conflict_type TEXT NOT NULL,
		field_name TEXT NOT NULL,
		claim_a_id TEXT NOT NULL,
		claim_b_id TEXT NOT NULL,
		pair_key TEXT NOT NULL,
		resolution TEXT NOT NULL DEFAULT '',
		resolved_value TEXT,
		resolution_notes TEXT,
		resolved_by TEXT,
		resolved_at DATETIME,
		created_at DATETIME NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_conflicts_pair
		ON conflicts(location_id, field_name, pair_key);
	CREATE INDEX IF NOT EXISTS idx_conflicts_location ON conflicts(location_id, resolution);

	CREATE TABLE IF NOT EXISTS timeline_events (
		id TEXT PRIMARY KEY,
		location_id TEXT NOT NULL,
		sub_location_id TEXT,
		event_type TEXT NOT NULL,
		event_subtype TEXT NOT NULL DEFAULT '',
		date_sort INTEGER NOT NULL,
		date_display TEXT NOT NULL,
		date_precision TEXT NOT NULL,
		date_edtf TEXT,
		source_type TEXT NOT NULL,
		source_ref TEXT NOT NULL DEFAULT '',
		source_device TEXT,
		sources TEXT,
		media_count INTEGER NOT NULL DEFAULT 0,
		created_by TEXT NOT NULL,
		auto_approved INTEGER NOT NULL DEFAULT 0,
		user_approved INTEGER NOT NULL DEFAULT 0,
		needs_review INTEGER NOT NULL DEFAULT 0,
		seq INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_location ON timeline_events(location_id, date_sort);
	CREATE INDEX IF NOT EXISTS idx_events_source
		ON timeline_events(location_id, source_ref, event_type, event_subtype);

	CREATE TABLE IF NOT EXISTS counters (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

const claimColumns = `id, location_id, sub_location_id, category, raw_text, confidence,
	status, source_type, source_ref, article_date, was_relative,
	date_precision, date_display, date_edtf, sort_start, sort_end, century_bias,
	conflict_id, conflict_resolved, is_primary, merged_from_ids,
	reviewed_by, rejection_reason, seq, created_at, updated_at`

// GetClaim retrieves a claim by ID.
func (s *SQLite) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE id = ?`, id)
	return scanClaim(row, "claim", id)
}

// FindClaimByIdentity looks up a claim by its idempotency key.
func (s *SQLite) FindClaimByIdentity(ctx context.Context, locationID, sourceRef, rawText string) (*model.Claim, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM claims
		 WHERE location_id = ? AND source_ref = ? AND raw_text = ?`,
		locationID, sourceRef, rawText)
	return scanClaim(row, "claim", locationID+"/"+sourceRef)
}

// PutClaim inserts or replaces a claim by ID.
func (s *SQLite) PutClaim(ctx context.Context, c *model.Claim) error {
	merged, err := marshalStrings(c.MergedFromIDs)
	if err != nil {
		return fmt.Errorf("marshal merged ids: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO claims (`+claimColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			raw_text = excluded.raw_text,
			confidence = excluded.confidence,
			status = excluded.status,
			article_date = excluded.article_date,
			was_relative = excluded.was_relative,
			date_precision = excluded.date_precision,
			date_display = excluded.date_display,
			date_edtf = excluded.date_edtf,
			sort_start = excluded.sort_start,
			sort_end = excluded.sort_end,
			century_bias = excluded.century_bias,
			conflict_id = excluded.conflict_id,
			conflict_resolved = excluded.conflict_resolved,
			is_primary = excluded.is_primary,
			merged_from_ids = excluded.merged_from_ids,
			reviewed_by = excluded.reviewed_by,
			rejection_reason = excluded.rejection_reason,
			updated_at = excluded.updated_at
	`,
		c.ID, c.LocationID, nullable(c.SubLocationID), string(c.Category), c.RawText, c.Confidence,
		string(c.Status), string(c.SourceType), c.SourceRef, c.ArticleDate, boolInt(c.WasRelative),
		string(c.ParsedDate.Precision), c.ParsedDate.Display, nullable(c.ParsedDate.EDTF),
		c.ParsedDate.SortStart, c.ParsedDate.SortEnd, boolInt(c.ParsedDate.CenturyBiasApplied),
		nullable(c.ConflictID), boolInt(c.ConflictResolved), boolInt(c.IsPrimary), merged,
		nullable(c.ReviewedBy), nullable(c.RejectionReason),
		c.Seq, c.CreatedAt, c.UpdatedAt)
	return err
}

// ListClaims returns claims for a location, filtered and in insertion order.
func (s *SQLite) ListClaims(ctx context.Context, locationID string, q ClaimQuery) ([]*model.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE location_id = ?`
	args := []any{locationID}
	if q.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(q.Status))
	}
	if q.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(q.Category))
	}
	if !q.IncludeHidden {
		query += ` AND is_primary = 1`
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Claim
	for rows.Next() {
		c, err := scanClaim(rows, "claim", "")
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const conflictColumns = `id, location_id, conflict_type, field_name, claim_a_id, claim_b_id,
	resolution, resolved_value, resolution_notes, resolved_by, resolved_at, created_at`

// GetConflict retrieves a conflict by ID.
func (s *SQLite) GetConflict(ctx context.Context, id string) (*model.FactConflict, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+conflictColumns+` FROM conflicts WHERE id = ?`, id)
	return scanConflict(row, id)
}

// FindConflictByPair looks up a conflict by its idempotency key.
func (s *SQLite) FindConflictByPair(ctx context.Context, locationID, fieldName, pairKey string) (*model.FactConflict, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+conflictColumns+` FROM conflicts
		 WHERE location_id = ? AND field_name = ? AND pair_key = ?`,
		locationID, fieldName, pairKey)
	return scanConflict(row, locationID+"/"+fieldName)
}

// PutConflict inserts or replaces a conflict by ID.
func (s *SQLite) PutConflict(ctx context.Context, c *model.FactConflict) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conflicts (`+conflictColumns+`, pair_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			resolution = excluded.resolution,
			resolved_value = excluded.resolved_value,
			resolution_notes = excluded.resolution_notes,
			resolved_by = excluded.resolved_by,
			resolved_at = excluded.resolved_at
	`,
		c.ID, c.LocationID, string(c.ConflictType), c.FieldName, c.ClaimAID, c.ClaimBID,
		string(c.Resolution), nullable(c.ResolvedValue), nullable(c.ResolutionNotes),
		nullable(c.ResolvedBy), c.ResolvedAt, c.CreatedAt, c.PairKey())
	return err
}

// ListConflicts returns conflicts for a location, open ones first.
func (s *SQLite) ListConflicts(ctx context.Context, locationID string, includeResolved bool) ([]*model.FactConflict, error) {
	query := `SELECT ` + conflictColumns + ` FROM conflicts WHERE location_id = ?`
	if !includeResolved {
		query += ` AND resolution = ''`
	}
	query += ` ORDER BY resolution = '' DESC, created_at`

	rows, err := s.db.QueryContext(ctx, query, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.FactConflict
	for rows.Next() {
		c, err := scanConflict(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const eventColumns = `id, location_id, sub_location_id, event_type, event_subtype,
	date_sort, date_display, date_precision, date_edtf,
	source_type, source_ref, source_device, sources,
	media_count, created_by, auto_approved, user_approved, needs_review,
	seq, created_at`

// GetEvent retrieves a timeline event by ID.
func (s *SQLite) GetEvent(ctx context.Context, id string) (*model.TimelineEvent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM timeline_events WHERE id = ?`, id)
	return scanEvent(row, id)
}

// FindEventBySource looks up an event by its backfill identity.
func (s *SQLite) FindEventBySource(ctx context.Context, locationID, sourceRef string, eventType model.EventType, subtype string) (*model.TimelineEvent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM timeline_events
		 WHERE location_id = ? AND source_ref = ? AND event_type = ? AND event_subtype = ?`,
		locationID, sourceRef, string(eventType), subtype)
	return scanEvent(row, locationID+"/"+sourceRef)
}

// PutEvent inserts or replaces an event by ID.
func (s *SQLite) PutEvent(ctx context.Context, ev *model.TimelineEvent) error {
	sources, err := json.Marshal(ev.Sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO timeline_events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date_sort = excluded.date_sort,
			date_display = excluded.date_display,
			date_precision = excluded.date_precision,
			date_edtf = excluded.date_edtf,
			sources = excluded.sources,
			media_count = excluded.media_count,
			auto_approved = excluded.auto_approved,
			user_approved = excluded.user_approved,
			needs_review = excluded.needs_review
	`,
		ev.ID, ev.LocationID, nullable(ev.SubLocationID), string(ev.EventType), ev.EventSubtype,
		ev.DateSort, ev.DateDisplay, string(ev.DatePrecision), nullable(ev.DateEDTF),
		string(ev.SourceType), ev.SourceRef, nullable(ev.SourceDevice), string(sources),
		ev.MediaCount, ev.CreatedBy, boolInt(ev.AutoApproved), boolInt(ev.UserApproved),
		boolInt(ev.NeedsReview), ev.Seq, ev.CreatedAt)
	return err
}

// DeleteEvent removes an event (conversion revert).
func (s *SQLite) DeleteEvent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM timeline_events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return &model.NotFoundError{Resource: "event", ID: id}
	}
	return nil
}

// ListEvents returns all events for the given locations in insertion order.
func (s *SQLite) ListEvents(ctx context.Context, locationIDs []string) ([]*model.TimelineEvent, error) {
	if len(locationIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + eventColumns + ` FROM timeline_events WHERE location_id IN (?` +
		repeat(",?", len(locationIDs)-1) + `) ORDER BY seq`
	args := make([]any, len(locationIDs))
	for i, id := range locationIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.TimelineEvent
	for rows.Next() {
		ev, err := scanEvent(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// NextSeq issues the next insertion-order counter value.
func (s *SQLite) NextSeq(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO counters (name, value) VALUES ('seq', 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1
	`); err != nil {
		return 0, err
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT value FROM counters WHERE name = 'seq'`).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, tx.Commit()
}

// Close closes the underlying database.
func (s *SQLite) Close() error { return s.db.Close() }

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanClaim(row scanner, resource, id string) (*model.Claim, error) {
	var (
		c           model.Claim
		subID       sql.NullString
		articleDate sql.NullTime
		wasRelative int
		edtf        sql.NullString
		bias        int
		conflictID  sql.NullString
		resolved    int
		primary     int
		merged      sql.NullString
		reviewedBy  sql.NullString
		reason      sql.NullString
	)
	err := row.Scan(
		&c.ID, &c.LocationID, &subID, &c.Category, &c.RawText, &c.Confidence,
		&c.Status, &c.SourceType, &c.SourceRef, &articleDate, &wasRelative,
		&c.ParsedDate.Precision, &c.ParsedDate.Display, &edtf,
		&c.ParsedDate.SortStart, &c.ParsedDate.SortEnd, &bias,
		&conflictID, &resolved, &primary, &merged,
		&reviewedBy, &reason,
		&c.Seq, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &model.NotFoundError{Resource: resource, ID: id}
	}
	if err != nil {
		return nil, err
	}

	c.SubLocationID = subID.String
	if articleDate.Valid {
		t := articleDate.Time
		c.ArticleDate = &t
	}
	c.WasRelative = wasRelative != 0
	c.ParsedDate.RawText = c.RawText
	c.ParsedDate.EDTF = edtf.String
	c.ParsedDate.CenturyBiasApplied = bias != 0
	c.ParsedDate.WasRelative = c.WasRelative
	c.ConflictID = conflictID.String
	c.ConflictResolved = resolved != 0
	c.IsPrimary = primary != 0
	c.ReviewedBy = reviewedBy.String
	c.RejectionReason = reason.String
	if merged.Valid && merged.String != "" {
		if err := json.Unmarshal([]byte(merged.String), &c.MergedFromIDs); err != nil {
			return nil, fmt.Errorf("unmarshal merged ids: %w", err)
		}
	}
	return &c, nil
}

func scanConflict(row scanner, id string) (*model.FactConflict, error) {
	var (
		c          model.FactConflict
		value      sql.NullString
		notes      sql.NullString
		resolvedBy sql.NullString
		resolvedAt sql.NullTime
	)
	err := row.Scan(
		&c.ID, &c.LocationID, &c.ConflictType, &c.FieldName, &c.ClaimAID, &c.ClaimBID,
		&c.Resolution, &value, &notes, &resolvedBy, &resolvedAt, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, &model.NotFoundError{Resource: "conflict", ID: id}
	}
	if err != nil {
		return nil, err
	}

	c.ResolvedValue = value.String
	c.ResolutionNotes = notes.String
	c.ResolvedBy = resolvedBy.String
	if resolvedAt.Valid {
		t := resolvedAt.Time
		c.ResolvedAt = &t
	}
	return &c, nil
}

func scanEvent(row scanner, id string) (*model.TimelineEvent, error) {
	var (
		ev      model.TimelineEvent
		subID   sql.NullString
		edtf    sql.NullString
		device  sql.NullString
		sources sql.NullString
		auto    int
		user    int
		review  int
	)
	err := row.Scan(
		&ev.ID, &ev.LocationID, &subID, &ev.EventType, &ev.EventSubtype,
		&ev.DateSort, &ev.DateDisplay, &ev.DatePrecision, &edtf,
		&ev.SourceType, &ev.SourceRef, &device, &sources,
		&ev.MediaCount, &ev.CreatedBy, &auto, &user, &review,
		&ev.Seq, &ev.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, &model.NotFoundError{Resource: "event", ID: id}
	}
	if err != nil {
		return nil, err
	}

	ev.SubLocationID = subID.String
	ev.DateEDTF = edtf.String
	ev.SourceDevice = device.String
	if sources.Valid && sources.String != "" && sources.String != "null" {
		if err := json.Unmarshal([]byte(sources.String), &ev.Sources); err != nil {
			return nil, fmt.Errorf("unmarshal sources: %w", err)
		}
	}
	ev.AutoApproved = auto != 0
	ev.UserApproved = user != 0
	ev.NeedsReview = review != 0
	return &ev, nil
}

func marshalStrings(ids []string) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}
	b, err := json.Marshal(ids)
	return string(b), err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}

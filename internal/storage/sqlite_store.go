package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"gpscam/internal/models"
)

// SQLiteStore is the native structured record backend. The connection is
// single-writer; every query carries a context.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// InitSchema ensures baseline tables exist.
func (s *SQLiteStore) InitSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS manual_gps_data (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			altitude REAL,
			accuracy REAL,
			address TEXT,
			description TEXT,
			tags TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_manual_gps_data_updated ON manual_gps_data(updated_at);`,
		`CREATE TABLE IF NOT EXISTS overlay_templates (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			fields TEXT NOT NULL,
			layout TEXT NOT NULL,
			background_color TEXT NOT NULL,
			text_color TEXT NOT NULL,
			font_size INTEGER NOT NULL,
			logo_position TEXT,
			show_logo INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Backend() string { return "sqlite" }

// Flush is a no-op: sqlite writes through on every mutation.
func (s *SQLiteStore) Flush() error { return nil }

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Fixed-width fraction so stored timestamps sort lexically; RFC3339Nano
// trims trailing zeros and would break ORDER BY on the text column.
const isoFormat = "2006-01-02T15:04:05.000000000Z07:00"

func (s *SQLiteStore) CreateLocation(ctx context.Context, loc *models.SavedLocation) (*models.SavedLocation, error) {
	now := time.Now().UTC()
	created := *loc
	created.ID = uuid.NewString()
	created.CreatedAt = now
	created.UpdatedAt = now
	if created.Coordinates.CapturedAt.IsZero() {
		created.Coordinates.CapturedAt = now
	}

	tags, err := marshalTags(created.Tags)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO manual_gps_data
		(id, name, latitude, longitude, altitude, accuracy, address, description, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.Name,
		created.Coordinates.Latitude, created.Coordinates.Longitude,
		nullFloat(created.Coordinates.Altitude), nullFloat(created.Coordinates.Accuracy),
		nullString(created.Address), nullString(created.Description), tags,
		created.CreatedAt.Format(isoFormat), created.UpdatedAt.Format(isoFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("insert location: %w", err)
	}
	return &created, nil
}

func (s *SQLiteStore) GetLocation(ctx context.Context, id string) (*models.SavedLocation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, latitude, longitude, altitude, accuracy, address, description, tags, created_at, updated_at
		 FROM manual_gps_data WHERE id = ?`, id)
	loc, err := scanLocation(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	return loc, err
}

func (s *SQLiteStore) ListLocations(ctx context.Context) ([]*models.SavedLocation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, latitude, longitude, altitude, accuracy, address, description, tags, created_at, updated_at
		 FROM manual_gps_data ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var locations []*models.SavedLocation
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

func (s *SQLiteStore) UpdateLocation(ctx context.Context, loc *models.SavedLocation) error {
	tags, err := marshalTags(loc.Tags)
	if err != nil {
		return err
	}
	loc.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE manual_gps_data
		SET name = ?, latitude = ?, longitude = ?, altitude = ?, accuracy = ?,
		    address = ?, description = ?, tags = ?, updated_at = ?
		WHERE id = ?`,
		loc.Name, loc.Coordinates.Latitude, loc.Coordinates.Longitude,
		nullFloat(loc.Coordinates.Altitude), nullFloat(loc.Coordinates.Accuracy),
		nullString(loc.Address), nullString(loc.Description), tags,
		loc.UpdatedAt.Format(isoFormat), loc.ID,
	)
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteLocation(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM manual_gps_data WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CountLocations(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM manual_gps_data`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) CreateTemplate(ctx context.Context, tpl *models.OverlayTemplate) (*models.OverlayTemplate, error) {
	now := time.Now().UTC()
	created := *tpl
	created.ID = uuid.NewString()
	created.CreatedAt = now
	created.UpdatedAt = now

	fields, err := json.Marshal(created.Fields)
	if err != nil {
		return nil, fmt.Errorf("marshal template fields: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO overlay_templates
		(id, name, fields, layout, background_color, text_color, font_size, logo_position, show_logo, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.Name, string(fields), string(created.Layout),
		created.BackgroundColor, created.TextColor, created.FontSize,
		nullString(string(created.LogoPosition)), boolToInt(created.ShowLogo),
		created.CreatedAt.Format(isoFormat), created.UpdatedAt.Format(isoFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}
	return &created, nil
}

func (s *SQLiteStore) GetTemplate(ctx context.Context, id string) (*models.OverlayTemplate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, fields, layout, background_color, text_color, font_size, logo_position, show_logo, created_at, updated_at
		 FROM overlay_templates WHERE id = ?`, id)
	tpl, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	return tpl, err
}

func (s *SQLiteStore) ListTemplates(ctx context.Context) ([]*models.OverlayTemplate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, fields, layout, background_color, text_color, font_size, logo_position, show_logo, created_at, updated_at
		 FROM overlay_templates ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []*models.OverlayTemplate
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tpl)
	}
	return templates, rows.Err()
}

func (s *SQLiteStore) UpdateTemplate(ctx context.Context, tpl *models.OverlayTemplate) error {
	fields, err := json.Marshal(tpl.Fields)
	if err != nil {
		return fmt.Errorf("marshal template fields: %w", err)
	}
	tpl.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE overlay_templates
		SET name = ?, fields = ?, layout = ?, background_color = ?, text_color = ?,
		    font_size = ?, logo_position = ?, show_logo = ?, updated_at = ?
		WHERE id = ?`,
		tpl.Name, string(fields), string(tpl.Layout), tpl.BackgroundColor, tpl.TextColor,
		tpl.FontSize, nullString(string(tpl.LogoPosition)), boolToInt(tpl.ShowLogo),
		tpl.UpdatedAt.Format(isoFormat), tpl.ID,
	)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteTemplate(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM overlay_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CountTemplates(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM overlay_templates`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocation(row rowScanner) (*models.SavedLocation, error) {
	var (
		loc                  models.SavedLocation
		altitude, accuracy   sql.NullFloat64
		address, description sql.NullString
		tags                 sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&loc.ID, &loc.Name, &loc.Coordinates.Latitude, &loc.Coordinates.Longitude,
		&altitude, &accuracy, &address, &description, &tags, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if altitude.Valid {
		loc.Coordinates.Altitude = models.Float64Ptr(altitude.Float64)
	}
	if accuracy.Valid {
		loc.Coordinates.Accuracy = models.Float64Ptr(accuracy.Float64)
	}
	loc.Address = address.String
	loc.Description = description.String
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &loc.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
	}

	loc.CreatedAt, _ = time.Parse(isoFormat, createdAt)
	loc.UpdatedAt, _ = time.Parse(isoFormat, updatedAt)
	loc.Coordinates.CapturedAt = loc.CreatedAt
	return &loc, nil
}

func scanTemplate(row rowScanner) (*models.OverlayTemplate, error) {
	var (
		tpl                  models.OverlayTemplate
		fields               string
		layout               string
		logoPosition         sql.NullString
		showLogo             int
		createdAt, updatedAt string
	)
	err := row.Scan(&tpl.ID, &tpl.Name, &fields, &layout, &tpl.BackgroundColor, &tpl.TextColor,
		&tpl.FontSize, &logoPosition, &showLogo, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(fields), &tpl.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal template fields: %w", err)
	}
	tpl.Layout = models.Layout(layout)
	tpl.LogoPosition = models.LogoPosition(logoPosition.String)
	tpl.ShowLogo = showLogo == 1
	tpl.CreatedAt, _ = time.Parse(isoFormat, createdAt)
	tpl.UpdatedAt, _ = time.Parse(isoFormat, updatedAt)
	return &tpl, nil
}

func marshalTags(tags []string) (sql.NullString, error) {
	if len(tags) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal tags: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

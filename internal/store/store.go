// Package store persists the timeline document aggregate to SQLite. A save
// replaces the whole project graph in one transaction; the in-memory model
// is authoritative and storage only ever reflects a consistent snapshot.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/demostudio/demostudio-agent/internal/timeline"
)

// ErrNotFound is returned when a project id has no stored document.
var ErrNotFound = errors.New("project not found")

type Repository interface {
	SaveDocument(ctx context.Context, doc *timeline.Document) error
	LoadDocument(ctx context.Context, projectID string) (*timeline.Document, error)
	ListProjects(ctx context.Context) ([]timeline.Project, error)
	DeleteProject(ctx context.Context, projectID string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) SaveDocument(ctx context.Context, doc *timeline.Document) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}
	defer tx.Rollback()

	p := doc.Project
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO projects (id, app_id, name, format, width, height, frame_rate, duration_ms, thumbnail_path, export_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			app_id=excluded.app_id, name=excluded.name, format=excluded.format,
			width=excluded.width, height=excluded.height, frame_rate=excluded.frame_rate,
			duration_ms=excluded.duration_ms, thumbnail_path=excluded.thumbnail_path,
			export_path=excluded.export_path, updated_at=excluded.updated_at
	`, p.ID, p.AppID, p.Name, p.Format, p.Width, p.Height, p.FrameRate, p.DurationMs,
		nullString(p.ThumbnailPath), nullString(p.ExportPath),
		p.CreatedAt.Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}

	// Child rows are replaced wholesale; the document is the unit of save.
	for _, table := range []string{"backgrounds", "assets"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE project_id = ?", p.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	for _, table := range []string{"clips", "zoom_clips", "blur_clips", "pan_clips"} {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM "+table+" WHERE track_id IN (SELECT id FROM tracks WHERE project_id = ?)", p.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM tracks WHERE project_id = ?", p.ID); err != nil {
		return fmt.Errorf("failed to clear tracks: %w", err)
	}

	if doc.Background != nil {
		bg := doc.Background
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO backgrounds (project_id, background_type, color, gradient_stops, gradient_direction, gradient_angle,
				pattern_type, pattern_color, pattern_scale, media_path, media_scale, media_position_x, media_position_y)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, p.ID, bg.Type, nullString(bg.Color), nullString(bg.GradientStops), nullString(bg.GradientDirection), bg.GradientAngle,
			nullString(bg.PatternType), nullString(bg.PatternColor), bg.PatternScale,
			nullString(bg.MediaPath), bg.MediaScale, bg.MediaPositionX, bg.MediaPositionY); err != nil {
			return fmt.Errorf("failed to save background: %w", err)
		}
	}

	for _, t := range doc.Tracks {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tracks (id, project_id, track_type, name, sort_order, visible, locked, muted, volume, target_track_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, t.ID, p.ID, t.Type, t.Name, t.SortOrder, boolToInt(t.Visible), boolToInt(t.Locked), boolToInt(t.Muted),
			t.Volume, nullString(t.TargetTrackID)); err != nil {
			return fmt.Errorf("failed to save track %s: %w", t.ID, err)
		}
	}

	for _, c := range doc.Clips {
		var localZoom any
		if c.LocalZoom != nil {
			data, err := json.Marshal(c.LocalZoom)
			if err != nil {
				return fmt.Errorf("failed to encode local zoom for clip %s: %w", c.ID, err)
			}
			localZoom = string(data)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO clips (id, track_id, name, source_path, source_type, source_duration_ms,
				start_time_ms, duration_ms, in_point_ms, position_x, position_y, scale, rotation, opacity,
				crop_top, crop_right, crop_bottom, crop_left, corner_radius,
				shadow_enabled, shadow_blur, shadow_offset_x, shadow_offset_y, shadow_opacity, shadow_color,
				volume, muted, has_audio, linked_clip_id, local_zoom)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ID, c.TrackID, c.Name, c.SourcePath, c.SourceType, c.SourceDurationMs,
			c.StartTimeMs, c.DurationMs, c.InPointMs, c.PositionX, c.PositionY, c.Scale, c.Rotation, c.Opacity,
			c.CropTop, c.CropRight, c.CropBottom, c.CropLeft, c.CornerRadius,
			boolToInt(c.Shadow.Enabled), c.Shadow.Blur, c.Shadow.OffsetX, c.Shadow.OffsetY, c.Shadow.Opacity, nullString(c.Shadow.Color),
			c.Volume, boolToInt(c.Muted), boolToInt(c.HasAudio), nullString(c.LinkedClipID), localZoom); err != nil {
			return fmt.Errorf("failed to save clip %s: %w", c.ID, err)
		}
	}

	for _, z := range doc.ZoomClips {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO zoom_clips (id, track_id, name, start_time_ms, duration_ms, ease_in_ms, ease_out_ms, zoom_scale, zoom_center_x, zoom_center_y)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, z.ID, z.TrackID, z.Name, z.StartTimeMs, z.DurationMs, z.EaseInMs, z.EaseOutMs, z.Scale, z.CenterX, z.CenterY); err != nil {
			return fmt.Errorf("failed to save zoom clip %s: %w", z.ID, err)
		}
	}

	for _, b := range doc.BlurClips {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO blur_clips (id, track_id, name, start_time_ms, duration_ms, ease_in_ms, ease_out_ms,
				blur_intensity, region_x, region_y, region_width, region_height, corner_radius, blur_inside)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, b.ID, b.TrackID, b.Name, b.StartTimeMs, b.DurationMs, b.EaseInMs, b.EaseOutMs,
			b.Intensity, b.RegionX, b.RegionY, b.RegionWidth, b.RegionHeight, b.CornerRadius, boolToInt(b.BlurInside)); err != nil {
			return fmt.Errorf("failed to save blur clip %s: %w", b.ID, err)
		}
	}

	for _, pc := range doc.PanClips {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO pan_clips (id, track_id, name, start_time_ms, duration_ms, ease_in_ms, ease_out_ms, start_x, start_y, end_x, end_y)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, pc.ID, pc.TrackID, pc.Name, pc.StartTimeMs, pc.DurationMs, pc.EaseInMs, pc.EaseOutMs,
			pc.StartX, pc.StartY, pc.EndX, pc.EndY); err != nil {
			return fmt.Errorf("failed to save pan clip %s: %w", pc.ID, err)
		}
	}

	for _, a := range doc.Assets {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO assets (id, project_id, name, file_path, asset_type, duration_ms, width, height, has_audio, thumbnail_path, file_size, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, a.ID, p.ID, a.Name, a.FilePath, a.AssetType,
			nullInt64(a.DurationMs), nullInt(a.Width), nullInt(a.Height), nullBool(a.HasAudio),
			nullString(a.ThumbnailPath), a.FileSize, a.CreatedAt.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("failed to save asset %s: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRepository) LoadDocument(ctx context.Context, projectID string) (*timeline.Document, error) {
	doc := &timeline.Document{}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, app_id, name, format, width, height, frame_rate, duration_ms, thumbnail_path, export_path, created_at, updated_at
		FROM projects WHERE id = ?
	`, projectID)

	var thumbnail, export sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(&doc.Project.ID, &doc.Project.AppID, &doc.Project.Name, &doc.Project.Format,
		&doc.Project.Width, &doc.Project.Height, &doc.Project.FrameRate, &doc.Project.DurationMs,
		&thumbnail, &export, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	doc.Project.ThumbnailPath = thumbnail.String
	doc.Project.ExportPath = export.String
	doc.Project.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	doc.Project.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	if err := r.loadBackground(ctx, doc); err != nil {
		return nil, err
	}
	if err := r.loadTracks(ctx, doc); err != nil {
		return nil, err
	}
	if err := r.loadClips(ctx, doc); err != nil {
		return nil, err
	}
	if err := r.loadEffectClips(ctx, doc); err != nil {
		return nil, err
	}
	if err := r.loadAssets(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *SQLiteRepository) loadBackground(ctx context.Context, doc *timeline.Document) error {
	row := r.db.QueryRowContext(ctx, `
		SELECT background_type, color, gradient_stops, gradient_direction, gradient_angle,
			pattern_type, pattern_color, pattern_scale, media_path, media_scale, media_position_x, media_position_y
		FROM backgrounds WHERE project_id = ?
	`, doc.Project.ID)

	bg := timeline.Background{ProjectID: doc.Project.ID}
	var color, stops, direction, patternType, patternColor, mediaPath sql.NullString
	var angle, patternScale, mediaScale, mediaX, mediaY sql.NullFloat64
	err := row.Scan(&bg.Type, &color, &stops, &direction, &angle,
		&patternType, &patternColor, &patternScale, &mediaPath, &mediaScale, &mediaX, &mediaY)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load background: %w", err)
	}
	bg.Color = color.String
	bg.GradientStops = stops.String
	bg.GradientDirection = direction.String
	bg.GradientAngle = angle.Float64
	bg.PatternType = patternType.String
	bg.PatternColor = patternColor.String
	bg.PatternScale = patternScale.Float64
	bg.MediaPath = mediaPath.String
	bg.MediaScale = mediaScale.Float64
	bg.MediaPositionX = mediaX.Float64
	bg.MediaPositionY = mediaY.Float64
	doc.Background = &bg
	return nil
}

func (r *SQLiteRepository) loadTracks(ctx context.Context, doc *timeline.Document) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, track_type, name, sort_order, visible, locked, muted, volume, target_track_id
		FROM tracks WHERE project_id = ? ORDER BY sort_order, id
	`, doc.Project.ID)
	if err != nil {
		return fmt.Errorf("failed to load tracks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t timeline.Track
		var visible, locked, muted int
		var target sql.NullString
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Type, &t.Name, &t.SortOrder, &visible, &locked, &muted, &t.Volume, &target); err != nil {
			return fmt.Errorf("failed to scan track: %w", err)
		}
		t.Visible = visible == 1
		t.Locked = locked == 1
		t.Muted = muted == 1
		t.TargetTrackID = target.String
		doc.Tracks = append(doc.Tracks, t)
	}
	return rows.Err()
}

func (r *SQLiteRepository) loadClips(ctx context.Context, doc *timeline.Document) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.track_id, c.name, c.source_path, c.source_type, c.source_duration_ms,
			c.start_time_ms, c.duration_ms, c.in_point_ms, c.position_x, c.position_y, c.scale, c.rotation, c.opacity,
			c.crop_top, c.crop_right, c.crop_bottom, c.crop_left, c.corner_radius,
			c.shadow_enabled, c.shadow_blur, c.shadow_offset_x, c.shadow_offset_y, c.shadow_opacity, c.shadow_color,
			c.volume, c.muted, c.has_audio, c.linked_clip_id, c.local_zoom
		FROM clips c
		JOIN tracks t ON t.id = c.track_id
		WHERE t.project_id = ?
		ORDER BY c.start_time_ms, c.id
	`, doc.Project.ID)
	if err != nil {
		return fmt.Errorf("failed to load clips: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c timeline.Clip
		var shadowEnabled, muted, hasAudio int
		var shadowColor, linked, localZoom sql.NullString
		if err := rows.Scan(&c.ID, &c.TrackID, &c.Name, &c.SourcePath, &c.SourceType, &c.SourceDurationMs,
			&c.StartTimeMs, &c.DurationMs, &c.InPointMs, &c.PositionX, &c.PositionY, &c.Scale, &c.Rotation, &c.Opacity,
			&c.CropTop, &c.CropRight, &c.CropBottom, &c.CropLeft, &c.CornerRadius,
			&shadowEnabled, &c.Shadow.Blur, &c.Shadow.OffsetX, &c.Shadow.OffsetY, &c.Shadow.Opacity, &shadowColor,
			&c.Volume, &muted, &hasAudio, &linked, &localZoom); err != nil {
			return fmt.Errorf("failed to scan clip: %w", err)
		}
		c.Shadow.Enabled = shadowEnabled == 1
		c.Shadow.Color = shadowColor.String
		c.Muted = muted == 1
		c.HasAudio = hasAudio == 1
		c.LinkedClipID = linked.String
		if localZoom.Valid && localZoom.String != "" {
			var lz timeline.LocalZoom
			if err := json.Unmarshal([]byte(localZoom.String), &lz); err == nil {
				c.LocalZoom = &lz
			}
		}
		doc.Clips = append(doc.Clips, c)
	}
	return rows.Err()
}

func (r *SQLiteRepository) loadEffectClips(ctx context.Context, doc *timeline.Document) error {
	zoomRows, err := r.db.QueryContext(ctx, `
		SELECT z.id, z.track_id, z.name, z.start_time_ms, z.duration_ms, z.ease_in_ms, z.ease_out_ms,
			z.zoom_scale, z.zoom_center_x, z.zoom_center_y
		FROM zoom_clips z JOIN tracks t ON t.id = z.track_id
		WHERE t.project_id = ? ORDER BY z.start_time_ms, z.id
	`, doc.Project.ID)
	if err != nil {
		return fmt.Errorf("failed to load zoom clips: %w", err)
	}
	defer zoomRows.Close()
	for zoomRows.Next() {
		var z timeline.ZoomClip
		if err := zoomRows.Scan(&z.ID, &z.TrackID, &z.Name, &z.StartTimeMs, &z.DurationMs, &z.EaseInMs, &z.EaseOutMs,
			&z.Scale, &z.CenterX, &z.CenterY); err != nil {
			return fmt.Errorf("failed to scan zoom clip: %w", err)
		}
		doc.ZoomClips = append(doc.ZoomClips, z)
	}
	if err := zoomRows.Err(); err != nil {
		return err
	}

	blurRows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.track_id, b.name, b.start_time_ms, b.duration_ms, b.ease_in_ms, b.ease_out_ms,
			b.blur_intensity, b.region_x, b.region_y, b.region_width, b.region_height, b.corner_radius, b.blur_inside
		FROM blur_clips b JOIN tracks t ON t.id = b.track_id
		WHERE t.project_id = ? ORDER BY b.start_time_ms, b.id
	`, doc.Project.ID)
	if err != nil {
		return fmt.Errorf("failed to load blur clips: %w", err)
	}
	defer blurRows.Close()
	for blurRows.Next() {
		var b timeline.BlurClip
		var inside int
		if err := blurRows.Scan(&b.ID, &b.TrackID, &b.Name, &b.StartTimeMs, &b.DurationMs, &b.EaseInMs, &b.EaseOutMs,
			&b.Intensity, &b.RegionX, &b.RegionY, &b.RegionWidth, &b.RegionHeight, &b.CornerRadius, &inside); err != nil {
			return fmt.Errorf("failed to scan blur clip: %w", err)
		}
		b.BlurInside = inside == 1
		doc.BlurClips = append(doc.BlurClips, b)
	}
	if err := blurRows.Err(); err != nil {
		return err
	}

	panRows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.track_id, p.name, p.start_time_ms, p.duration_ms, p.ease_in_ms, p.ease_out_ms,
			p.start_x, p.start_y, p.end_x, p.end_y
		FROM pan_clips p JOIN tracks t ON t.id = p.track_id
		WHERE t.project_id = ? ORDER BY p.start_time_ms, p.id
	`, doc.Project.ID)
	if err != nil {
		return fmt.Errorf("failed to load pan clips: %w", err)
	}
	defer panRows.Close()
	for panRows.Next() {
		var p timeline.PanClip
		if err := panRows.Scan(&p.ID, &p.TrackID, &p.Name, &p.StartTimeMs, &p.DurationMs, &p.EaseInMs, &p.EaseOutMs,
			&p.StartX, &p.StartY, &p.EndX, &p.EndY); err != nil {
			return fmt.Errorf("failed to scan pan clip: %w", err)
		}
		doc.PanClips = append(doc.PanClips, p)
	}
	return panRows.Err()
}

func (r *SQLiteRepository) loadAssets(ctx context.Context, doc *timeline.Document) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, name, file_path, asset_type, duration_ms, width, height, has_audio, thumbnail_path, file_size, created_at
		FROM assets WHERE project_id = ? ORDER BY created_at, id
	`, doc.Project.ID)
	if err != nil {
		return fmt.Errorf("failed to load assets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a timeline.Asset
		var duration sql.NullInt64
		var width, height sql.NullInt64
		var hasAudio sql.NullInt64
		var thumbnail sql.NullString
		var createdAt string
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.Name, &a.FilePath, &a.AssetType,
			&duration, &width, &height, &hasAudio, &thumbnail, &a.FileSize, &createdAt); err != nil {
			return fmt.Errorf("failed to scan asset: %w", err)
		}
		if duration.Valid {
			v := duration.Int64
			a.DurationMs = &v
		}
		if width.Valid {
			v := int(width.Int64)
			a.Width = &v
		}
		if height.Valid {
			v := int(height.Int64)
			a.Height = &v
		}
		if hasAudio.Valid {
			v := hasAudio.Int64 == 1
			a.HasAudio = &v
		}
		a.ThumbnailPath = thumbnail.String
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		doc.Assets = append(doc.Assets, a)
	}
	return rows.Err()
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]timeline.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, app_id, name, format, width, height, frame_rate, duration_ms, thumbnail_path, export_path, created_at, updated_at
		FROM projects ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []timeline.Project
	for rows.Next() {
		var p timeline.Project
		var thumbnail, export sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.AppID, &p.Name, &p.Format, &p.Width, &p.Height, &p.FrameRate, &p.DurationMs,
			&thumbnail, &export, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.ThumbnailPath = thumbnail.String
		p.ExportPath = export.String
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, projectID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", projectID)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullBool(v *bool) any {
	if v == nil {
		return nil
	}
	if *v {
		return 1
	}
	return 0
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

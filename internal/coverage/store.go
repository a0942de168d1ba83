package coverage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/nusalink/coverage-backend/internal/geo"
	"github.com/nusalink/coverage-backend/internal/ingest"
)

// Store owns all persistence over coverage.sites. No other component mutates
// the table directly.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) filtered(ctx context.Context, search, networkType string) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&CoverageSite{})
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("site_id ILIKE ? OR homepass_id ILIKE ? OR locality ILIKE ?", like, like, like)
	}
	if networkType != "" {
		q = q.Where("network_type = ?", networkType)
	}
	return q
}

// ListPaged returns one page of sites ordered by id descending, newest first.
// An empty page is a normal result, not an error.
func (s *Store) ListPaged(ctx context.Context, page, pageSize int, search, networkType string) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 50
	}

	var total int64
	if err := s.filtered(ctx, search, networkType).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count sites: %w", err)
	}

	sites := []CoverageSite{}
	err := s.filtered(ctx, search, networkType).
		Order("id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&sites).Error
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &Page{Sites: sites, Total: total, TotalPages: totalPages, Page: page, PageSize: pageSize}, nil
}

// ListInBounds returns every site whose anchor falls inside the viewport box,
// plus every site that carries a polygon regardless of where its anchor sits.
// A large area's anchor can lie outside a small viewport while its boundary
// still intersects it, so polygons are never bbox-filtered out.
func (s *Store) ListInBounds(ctx context.Context, b geo.Bounds, search, networkType string) ([]CoverageSite, error) {
	sites := []CoverageSite{}
	err := s.filtered(ctx, search, networkType).
		Where("(latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?) OR polygon IS NOT NULL",
			b.MinLat, b.MaxLat, b.MinLng, b.MaxLng).
		Order("id DESC").
		Find(&sites).Error
	if err != nil {
		return nil, fmt.Errorf("list sites in bounds: %w", err)
	}
	return sites, nil
}

// FindNearest returns the site minimizing great-circle distance to the given
// point, optionally restricted to one network type. Ties break on lowest id.
// An empty store yields (nil, -1, nil).
func (s *Store) FindNearest(ctx context.Context, point geo.LatLng, networkType string) (*CoverageSite, float64, error) {
	query := `
		SELECT id, (
			2 * 6371000 * asin(sqrt(
				power(sin(radians(latitude - ?) / 2), 2) +
				cos(radians(?)) * cos(radians(latitude)) *
				power(sin(radians(longitude - ?) / 2), 2)
			))
		) AS distance_m
		FROM coverage.sites
	`
	args := []any{point.Lat, point.Lat, point.Lng}
	if networkType != "" {
		query += ` WHERE network_type = ?`
		args = append(args, networkType)
	}
	query += ` ORDER BY distance_m ASC, id ASC LIMIT 1`

	row := s.db.WithContext(ctx).Raw(query, args...).Row()

	var id int64
	var dist float64
	if err := row.Scan(&id, &dist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, -1, nil
		}
		return nil, -1, fmt.Errorf("nearest-site query failed: %w", err)
	}

	var site CoverageSite
	if err := s.db.WithContext(ctx).First(&site, id).Error; err != nil {
		return nil, -1, fmt.Errorf("fetch nearest site %d: %w", id, err)
	}
	return &site, dist, nil
}

// Create inserts a single validated site and returns it with its assigned id.
func (s *Store) Create(ctx context.Context, site *CoverageSite) error {
	normalizeSite(site)
	if err := validateSite(site); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(site).Error; err != nil {
		return fmt.Errorf("create site: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of an existing site. Missing id is a
// NotFoundError; id and created_at are immutable.
func (s *Store) Update(ctx context.Context, id int64, site *CoverageSite) error {
	normalizeSite(site)
	if err := validateSite(site); err != nil {
		return err
	}

	var existing CoverageSite
	if err := s.db.WithContext(ctx).First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{ID: id}
		}
		return fmt.Errorf("fetch site %d: %w", id, err)
	}

	site.ID = existing.ID
	site.CreatedAt = existing.CreatedAt
	if err := s.db.WithContext(ctx).Save(site).Error; err != nil {
		return fmt.Errorf("update site %d: %w", id, err)
	}
	return nil
}

// Delete removes a site. Deleting a non-existent id succeeds silently.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.db.WithContext(ctx).Delete(&CoverageSite{}, id).Error; err != nil {
		return fmt.Errorf("delete site %d: %w", id, err)
	}
	return nil
}

// DeleteByIDs removes the given sites. An empty list is a no-op success.
func (s *Store) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Where("id = ANY(?)", pq.Array(ids)).
		Delete(&CoverageSite{}).Error
	if err != nil {
		return fmt.Errorf("bulk delete sites: %w", err)
	}
	return nil
}

// DeleteAll wipes the coverage table. Destructive and irreversible; the UI
// layer is responsible for confirmation.
func (s *Store) DeleteAll(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Exec(`DELETE FROM coverage.sites`).Error; err != nil {
		return fmt.Errorf("delete all sites: %w", err)
	}
	return nil
}

// BulkWrite persists one chunk of records. Insert mode always creates new
// rows. Upsert mode matches each incoming record against the current store
// state by exact site_id (lowest-id row wins) and overwrites the match, so a
// batch carrying duplicate site_ids updates the same row in sequence.
func (s *Store) BulkWrite(ctx context.Context, records []CoverageSite, mode string) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	for i := range records {
		normalizeSite(&records[i])
		if err := validateSite(&records[i]); err != nil {
			return 0, err
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if mode == ingest.ModeInsert {
			// Explicit ids are honored (restores bypass the allocator); the
			// ingestion controller resyncs the sequence afterwards.
			batch := make([]CoverageSite, len(records))
			copy(batch, records)
			return tx.Create(&batch).Error
		}

		for i := range records {
			rec := records[i]
			rec.ID = 0

			var existing CoverageSite
			err := tx.Where("site_id = ?", rec.SiteID).Order("id ASC").First(&existing).Error
			switch {
			case err == nil:
				rec.ID = existing.ID
				rec.CreatedAt = existing.CreatedAt
				if err := tx.Save(&rec).Error; err != nil {
					return fmt.Errorf("upsert site_id %q: %w", rec.SiteID, err)
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&rec).Error; err != nil {
					return fmt.Errorf("insert site_id %q: %w", rec.SiteID, err)
				}
			default:
				return fmt.Errorf("match site_id %q: %w", rec.SiteID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// ResyncIDSequence realigns the id sequence with MAX(id). Bulk paths can
// insert explicit ids past the allocator, which would make the next ordinary
// insert collide.
func (s *Store) ResyncIDSequence(ctx context.Context) error {
	err := s.db.WithContext(ctx).Exec(`
		SELECT setval(
			pg_get_serial_sequence('coverage.sites', 'id'),
			COALESCE((SELECT MAX(id) FROM coverage.sites), 1)
		)
	`).Error
	if err != nil {
		return fmt.Errorf("resync id sequence: %w", err)
	}
	return nil
}

// normalizeSite fills the defaulted fields a caller may omit.
func normalizeSite(s *CoverageSite) {
	if s.NetworkType == "" {
		s.NetworkType = DefaultNetworkType
	}
	if s.Status == "" {
		s.Status = StatusActive
	}
}

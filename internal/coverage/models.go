package coverage

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nusalink/coverage-backend/internal/geo"
)

// Polygon is an ordered ring of lat/lng vertices describing a coverage-area
// boundary. Stored as jsonb.
type Polygon []geo.LatLng

func (p Polygon) Value() (driver.Value, error) {
	if len(p) == 0 {
		return nil, nil
	}
	return json.Marshal(p)
}

func (p *Polygon) Scan(src any) error {
	if src == nil {
		*p = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("polygon: cannot scan %T", src)
	}
}

// CoverageSite is a network node believed to provide service within a radius
// of its anchor point, or within an explicitly drawn polygon. SiteID is the
// natural key for upsert imports and is not unique.
type CoverageSite struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	NetworkType   string    `gorm:"index;size:50" json:"network_type"`
	SiteID        string    `gorm:"index;size:100" json:"site_id"`
	HomepassID    string    `gorm:"size:100" json:"homepass_id"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	AreaLatitude  *float64  `json:"area_latitude,omitempty"`
	AreaLongitude *float64  `json:"area_longitude,omitempty"`
	Polygon       Polygon   `gorm:"type:jsonb" json:"polygon,omitempty"`
	Locality      string    `json:"locality"`
	Status        string    `gorm:"size:20;default:active" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

func (CoverageSite) TableName() string {
	return "coverage.sites"
}

// Anchor returns the coverage-evaluation point for the site. The anchor is
// used for nearest-neighbor search even when a polygon is present.
func (s *CoverageSite) Anchor() geo.LatLng {
	return geo.LatLng{Lat: s.Latitude, Lng: s.Longitude}
}

// HasPolygon reports whether the site carries an area boundary. Polygon sites
// are exempt from viewport culling and render caps.
func (s *CoverageSite) HasPolygon() bool {
	return len(s.Polygon) > 0
}

func (s *CoverageSite) IsActive() bool {
	return s.Status != StatusInactive
}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"

	// DefaultNetworkType is applied when an import or create supplies no type.
	DefaultNetworkType = "FTTH"
)

// Page is one page of coverage sites plus pagination metadata.
type Page struct {
	Sites      []CoverageSite `json:"sites"`
	Total      int64          `json:"total"`
	TotalPages int            `json:"total_pages"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
}

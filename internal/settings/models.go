package settings

import "time"

// NetworkTypeStyle is the per-network-type rendering and classification
// configuration: marker color, area fill color, and coverage radius.
type NetworkTypeStyle struct {
	NodeColor    string  `json:"node_color" yaml:"node_color"`
	AreaColor    string  `json:"area_color" yaml:"area_color"`
	RadiusMeters float64 `json:"radius_m" yaml:"radius_m"`
}

// CoverageSettings is the process-wide coverage configuration. It is read as
// a whole and replaced as a whole on save; concurrent readers observe either
// the old or the new object, never a partial one.
type CoverageSettings struct {
	NetworkTypes map[string]NetworkTypeStyle `json:"network_types" yaml:"network_types"`
	Opacity      float64                     `json:"opacity" yaml:"opacity"`
	NodeSizePx   int                         `json:"node_size" yaml:"node_size"`
}

// DefaultRadiusMeters applies when the nearest node's network type has no
// configured radius.
const DefaultRadiusMeters = 50.0

// RadiusFor returns the coverage radius for a network type, falling back to
// the default for unrecognized types.
func (s CoverageSettings) RadiusFor(networkType string) float64 {
	if style, ok := s.NetworkTypes[networkType]; ok && style.RadiusMeters > 0 {
		return style.RadiusMeters
	}
	return DefaultRadiusMeters
}

// settingsRow is the single-row storage for CoverageSettings.
type settingsRow struct {
	ID        int       `gorm:"primaryKey"`
	Payload   []byte    `gorm:"type:jsonb"`
	UpdatedAt time.Time
}

func (settingsRow) TableName() string {
	return "coverage.app_settings"
}

const settingsRowID = 1

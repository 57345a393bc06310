package domain

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Scan represents one persisted label scan owned by a user. The full
// normalized WineData is stored as a JSON blob; a handful of fields are
// denormalized into columns for listing and filtering without decoding every
// blob.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the scan owner; indexed for efficient retrieval.
//   - WineKey: derived wine identity (producer-region-country-vintage) so
//     repeated scans of the same label can be matched; indexed.
//   - Producer/Region/Country/Vintage/Category: denormalized display columns.
//   - WineJSON: the complete WineData record, JSON-encoded.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type Scan struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_scans"`
	WineKey   string         `json:"wine_key"   gorm:"type:varchar(255);index"`
	Producer  string         `json:"producer"   gorm:"type:varchar(255)"`
	Region    string         `json:"region"     gorm:"type:varchar(255)"`
	Country   string         `json:"country"    gorm:"type:varchar(255)"`
	Vintage   string         `json:"vintage"    gorm:"type:varchar(16)"`
	Category  string         `json:"category"   gorm:"type:varchar(32);not null;default:'unknown'"`
	WineJSON  []byte         `json:"-"          gorm:"type:blob;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Scan.
func (Scan) TableName() string { return "scans" }

// Wine decodes the stored WineData blob. An undecodable blob degrades to a
// record with only the denormalized columns populated, so callers never see
// an error for historical rows.
func (s *Scan) Wine() WineData {
	var w WineData
	if err := json.Unmarshal(s.WineJSON, &w); err != nil {
		w = WineData{Category: ParseWineCategory(s.Category)}
		if s.Producer != "" {
			p := s.Producer
			w.Producer = &p
		}
		if s.Region != "" {
			r := s.Region
			w.Region = &r
		}
		if s.Country != "" {
			c := s.Country
			w.Country = &c
		}
		if s.Vintage != "" {
			v := s.Vintage
			w.Vintage = &v
		}
	}
	return w
}

// Tasting represents one finalized guided-tasting session recorded against a
// scan. The user's input and the AI profile it was compared to are stored as
// JSON blobs, mirroring how the mobile client snapshots them. A scan may be
// tasted more than once; listings return newest first.
type Tasting struct {
	ID          string         `json:"id"       gorm:"type:char(36);primaryKey"`
	ScanID      string         `json:"scan_id"  gorm:"type:char(36);not null;index:idx_scan_tastings,priority:1"`
	UserID      string         `json:"user_id"  gorm:"type:varchar(64);not null;index"`
	InputJSON   []byte         `json:"-"        gorm:"type:blob;not null"`
	ProfileJSON []byte         `json:"-"        gorm:"type:blob;not null"`
	CreatedAt   time.Time      `json:"created_at" gorm:"index:idx_scan_tastings,priority:2"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"        gorm:"index"`

	// Scan is the parent record. Tastings are cascade-deleted with it.
	Scan Scan `json:"-" gorm:"foreignKey:ScanID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Tasting.
func (Tasting) TableName() string { return "tastings" }

// Input decodes the stored TastingInput blob, falling back to a fresh input
// so the summary view never crashes on a corrupt row.
func (t *Tasting) Input() TastingInput {
	var in TastingInput
	if err := json.Unmarshal(t.InputJSON, &in); err != nil {
		return NewTastingInput()
	}
	return in
}

// Profile decodes the stored AITastingProfile blob, falling back to the
// minimal empty profile.
func (t *Tasting) Profile() AITastingProfile {
	var p AITastingProfile
	if err := json.Unmarshal(t.ProfileJSON, &p); err != nil {
		return EmptyProfile()
	}
	return p
}

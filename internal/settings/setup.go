package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nusalink/coverage-backend/internal/db"
)

var rdb = openRedisFromEnv()

func Init() {
	if err := db.EnsureSchema(db.DB, "coverage"); err != nil {
		log.Fatal("Failed to create coverage schema: ", err)
	}
	if err := db.DB.AutoMigrate(&settingsRow{}); err != nil {
		log.Fatal("Failed to auto-migrate settings table", err)
	}
	if rdb != nil {
		log.Println("[Settings] redis cache enabled")
	}
}

// Load returns the persisted settings, falling back to Defaults() before the
// first save. Reads go through the optional redis cache.
func Load(ctx context.Context) (CoverageSettings, error) {
	if s, ok := cacheGet(ctx, rdb); ok {
		return s, nil
	}

	var row settingsRow
	err := db.DB.WithContext(ctx).First(&row, settingsRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s := Defaults()
		cacheSet(ctx, rdb, s)
		return s, nil
	}
	if err != nil {
		return CoverageSettings{}, fmt.Errorf("load settings: %w", err)
	}

	var s CoverageSettings
	if err := json.Unmarshal(row.Payload, &s); err != nil {
		return CoverageSettings{}, fmt.Errorf("decode settings row: %w", err)
	}
	cacheSet(ctx, rdb, s)
	return s, nil
}

// Save replaces the settings object as a whole. Last write wins.
func Save(ctx context.Context, s CoverageSettings) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	row := settingsRow{ID: settingsRowID, Payload: payload, UpdatedAt: time.Now()}
	err = db.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	cacheInvalidate(ctx, rdb)
	return nil
}

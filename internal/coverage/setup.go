package coverage

import (
	"log"

	"github.com/nusalink/coverage-backend/internal/db"
	"github.com/nusalink/coverage-backend/internal/ingest"
)

var (
	store     *Store
	ingestCtl *ingest.Controller[CoverageSite]
)

func Init() {
	if err := db.EnsureSchema(db.DB, "coverage"); err != nil {
		log.Fatal("Failed to create coverage schema: ", err)
	}

	if err := db.DB.AutoMigrate(&CoverageSite{}); err != nil {
		log.Fatal("Failed to auto-migrate coverage tables", err)
	}

	store = NewStore(db.DB)
	ingestCtl = ingest.NewController[CoverageSite]()
}

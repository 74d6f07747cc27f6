package service

import (
	"database/sql"
	"fmt"
	"maps"
	"strconv"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/database"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	db       *sql.DB
	features map[string]bool
}

// NewSystemService creates a new SystemService. features lists the optional
// collaborators enabled in this deployment.
func NewSystemService(db *sql.DB, features map[string]bool) *SystemService {
	return &SystemService{
		db:       db,
		features: features,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth() error {
	return database.HealthCheck(s.db)
}

// CheckVersion reports the application version, the applied schema version
// and the enabled features.
func (s *SystemService) CheckVersion() (model.VersionInfo, error) {
	dbVersion, err := database.SchemaVersion(s.db)
	if err != nil {
		return model.VersionInfo{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToGetVersionInfo, err)
	}

	features := make(map[string]bool, len(s.features))
	maps.Copy(features, s.features)

	info := model.VersionInfo{
		AppVersion: version.Version,
		DbVersion:  strconv.FormatInt(dbVersion, 10),
		Features:   features,
		Categories: model.Categories(),
		Scopes:     append(model.PrimaryScopes(), model.ScopeConsolidated),
	}
	if dbVersion < database.LatestVersion {
		msg := fmt.Sprintf("database schema is at version %d, expected %d", dbVersion, database.LatestVersion)
		info.MigrationNeeded = true
		info.MigrationMessage = &msg
	}
	return info, nil
}

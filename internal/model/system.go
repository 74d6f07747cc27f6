package model

// VersionInfo describes the running build, its schema state and the tax
// surface it serves.
type VersionInfo struct {
	AppVersion       string          `json:"app_version"`
	DbVersion        string          `json:"db_version"`
	Features         map[string]bool `json:"features"`
	Categories       []Category      `json:"categories"`
	Scopes           []ReportScope   `json:"scopes"`
	MigrationNeeded  bool            `json:"migration_needed"`
	MigrationMessage *string         `json:"migration_message,omitempty"`
}

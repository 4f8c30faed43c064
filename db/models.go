package db

import (
	"gorm.io/gorm"
)

// Download records one artifact written to disk.
type Download struct {
	gorm.Model
	RunID         string `gorm:"index"` // Shared by every download of one invocation
	Slug          string `gorm:"index"` // Catalog slug of the downloaded mod
	ModID         int    // Catalog mod id
	ProjectFileID int    // Catalog file id
	FileName      string // Name of the file written
	InstallPath   string // Full destination path
	Bytes         int64
	SHA1          string
	DependencyOf  string // Slug of the requested mod this was pulled in for; empty for requested mods
}

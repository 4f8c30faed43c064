package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ModLoader is the loader family a distributable file targets.
type ModLoader int

const (
	ModLoaderNone ModLoader = iota
	ModLoaderForge
	ModLoaderFabric
	ModLoaderOther
)

// Wire values used by the catalog's modLoader field.
const (
	wireForge  = 1
	wireFabric = 4
)

func (m ModLoader) String() string {
	switch m {
	case ModLoaderNone:
		return "none"
	case ModLoaderForge:
		return "forge"
	case ModLoaderFabric:
		return "fabric"
	default:
		return "other"
	}
}

// ParseModLoader accepts the two loaders a user can request.
func ParseModLoader(name string) (ModLoader, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "forge":
		return ModLoaderForge, nil
	case "fabric":
		return ModLoaderFabric, nil
	default:
		return ModLoaderNone, fmt.Errorf("unsupported modloader %q", name)
	}
}

func modLoaderFromWire(v *int) ModLoader {
	if v == nil {
		return ModLoaderNone
	}
	switch *v {
	case wireForge:
		return ModLoaderForge
	case wireFabric:
		return ModLoaderFabric
	default:
		return ModLoaderOther
	}
}

// DependencyType classifies a dependency reference.
type DependencyType int

const (
	DependencyOther DependencyType = iota
	DependencyOptional
	DependencyRequired
)

const (
	wireOptional = 2
	wireRequired = 3
)

func (d DependencyType) String() string {
	switch d {
	case DependencyRequired:
		return "required"
	case DependencyOptional:
		return "optional"
	default:
		return "other"
	}
}

// FileRecord is one distributable file of a mod.
type FileRecord struct {
	ProjectFileID int
	FileName      string
	ModLoader     ModLoader
	GameVersion   string
	FileDate      time.Time
}

type wireFile struct {
	ProjectFileID   int    `json:"projectFileId"`
	ProjectFileName string `json:"projectFileName"`
	ModLoader       *int   `json:"modLoader"`
	GameVersion     string `json:"gameVersion"`
	FileDate        string `json:"fileDate"`
}

// UnmarshalJSON maps the loosely typed catalog entry onto FileRecord.
// A null or absent modLoader becomes ModLoaderNone; an absent or
// unparsable fileDate becomes the zero time.
func (f *FileRecord) UnmarshalJSON(data []byte) error {
	var w wireFile
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*f = FileRecord{
		ProjectFileID: w.ProjectFileID,
		FileName:      w.ProjectFileName,
		ModLoader:     modLoaderFromWire(w.ModLoader),
		GameVersion:   w.GameVersion,
	}
	if w.FileDate != "" {
		if ts, err := time.Parse(time.RFC3339Nano, w.FileDate); err == nil {
			f.FileDate = ts.UTC()
		}
	}
	return nil
}

// ModRecord is one mod of the catalog. Files keep catalog order.
type ModRecord struct {
	ID    int          `json:"id"`
	Slug  string       `json:"slug"`
	Name  string       `json:"name"`
	Files []FileRecord `json:"latest_files"`
}

// DisplayName prefers the human name, falling back to the slug.
func (m ModRecord) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.Slug
}

// Document is a decoded catalog. It is never patched; a refresh produces a
// new Document.
type Document struct {
	Mods []ModRecord
	// Dropped counts records rejected during decoding.
	Dropped int
}

// Decode parses the raw catalog body. Records without a positive id or a
// slug cannot be looked up and are dropped.
func Decode(data []byte) (Document, error) {
	var raw []ModRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, fmt.Errorf("decoding catalog: %w", err)
	}
	doc := Document{Mods: make([]ModRecord, 0, len(raw))}
	for _, m := range raw {
		if m.ID <= 0 || m.Slug == "" {
			doc.Dropped++
			continue
		}
		doc.Mods = append(doc.Mods, m)
	}
	return doc, nil
}

// DependencyRef points at another mod by catalog id.
type DependencyRef struct {
	AddonID int
	Type    DependencyType
}

type wireDependency struct {
	AddonID int  `json:"addonId"`
	Type    *int `json:"type"`
}

func (d *DependencyRef) UnmarshalJSON(data []byte) error {
	var w wireDependency
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	d.AddonID = w.AddonID
	d.Type = DependencyOther
	if w.Type != nil {
		switch *w.Type {
		case wireRequired:
			d.Type = DependencyRequired
		case wireOptional:
			d.Type = DependencyOptional
		}
	}
	return nil
}

// FileDetail is the per-file document served by the detail endpoint.
type FileDetail struct {
	DownloadURL  string          `json:"downloadUrl"`
	Dependencies []DependencyRef `json:"dependencies"`
}

// Validate rejects details the pipeline cannot act on.
func (d FileDetail) Validate() error {
	if strings.TrimSpace(d.DownloadURL) == "" {
		return fmt.Errorf("file detail has no downloadUrl")
	}
	return nil
}

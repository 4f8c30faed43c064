package cmd

import (
	"bytes"
	"strings"
	"testing"

	"cfmods/catalog"
	"cfmods/resolver"
)

func TestPrintFilesMarksSelection(t *testing.T) {
	mod := catalog.ModRecord{ID: 10, Slug: "jei", Name: "JEI", Files: []catalog.FileRecord{
		{ProjectFileID: 101, FileName: "jei-fabric.jar", ModLoader: catalog.ModLoaderFabric, GameVersion: "1.16.5"},
		{ProjectFileID: 102, FileName: "jei-old.jar", ModLoader: catalog.ModLoaderForge, GameVersion: "1.12.2"},
		{ProjectFileID: 103, FileName: "jei-forge.jar", ModLoader: catalog.ModLoaderForge, GameVersion: "1.16.5"},
	}}

	var buf bytes.Buffer
	printFiles(&buf, mod, catalog.ModLoaderForge, resolver.NewVersionSet("1.16.5"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected title, header and 3 rows, got %d lines:\n%s", len(lines), buf.String())
	}

	tests := []struct {
		line int
		want string
	}{
		{2, "other modloader"},
		{3, "game version not requested"},
		{4, "selected"},
	}
	for _, tt := range tests {
		if !strings.Contains(lines[tt.line], tt.want) {
			t.Errorf("line %d = %q, want it to contain %q", tt.line, lines[tt.line], tt.want)
		}
	}
	if !strings.HasPrefix(lines[4], "*") {
		t.Errorf("selected row should start with *, got %q", lines[4])
	}
}

func TestPrintFilesNoFiles(t *testing.T) {
	var buf bytes.Buffer
	printFiles(&buf, catalog.ModRecord{ID: 1, Slug: "empty"}, catalog.ModLoaderForge, resolver.NewVersionSet("1.16.5"))
	if !strings.Contains(buf.String(), "no files") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

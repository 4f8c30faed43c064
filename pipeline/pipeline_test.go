package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"cfmods/catalog"
	"cfmods/downloader"
	"cfmods/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDetails struct {
	details map[string]catalog.FileDetail
	errs    map[string]error
	calls   []string
}

func key(modID, fileID int) string { return fmt.Sprintf("%d/%d", modID, fileID) }

func (f *fakeDetails) GetFileDetail(_ context.Context, modID, fileID int) (catalog.FileDetail, error) {
	k := key(modID, fileID)
	f.calls = append(f.calls, k)
	if err := f.errs[k]; err != nil {
		return catalog.FileDetail{}, err
	}
	d, ok := f.details[k]
	if !ok {
		return catalog.FileDetail{}, errors.New("no detail for " + k)
	}
	return d, nil
}

// fakeFetcher writes a small file for every URL unless told to fail.
type fakeFetcher struct {
	fail  map[string]error
	order []string
}

func (f *fakeFetcher) Download(_ context.Context, url, dest, label string) (downloader.Result, error) {
	f.order = append(f.order, label)
	if err := f.fail[url]; err != nil {
		return downloader.Result{}, err
	}
	if err := os.WriteFile(dest, []byte(label), 0644); err != nil {
		return downloader.Result{}, err
	}
	return downloader.Result{Path: dest, Bytes: int64(len(label)), SHA1: "sha-" + label}, nil
}

type memRecorder struct{ records []Record }

func (m *memRecorder) RecordDownload(r Record) error {
	m.records = append(m.records, r)
	return nil
}

func forgeFile(id int, version string) catalog.FileRecord {
	return catalog.FileRecord{ProjectFileID: id, FileName: fmt.Sprintf("f%d.jar", id), ModLoader: catalog.ModLoaderForge, GameVersion: version}
}

type fixture struct {
	dir      string
	details  *fakeDetails
	fetcher  *fakeFetcher
	recorder *memRecorder
	events   []Event
	p        *Pipeline
}

func newFixture(t *testing.T, mods []catalog.ModRecord, deps bool) *fixture {
	t.Helper()
	f := &fixture{
		dir: t.TempDir(),
		details: &fakeDetails{
			details: map[string]catalog.FileDetail{},
			errs:    map[string]error{},
		},
		fetcher:  &fakeFetcher{fail: map[string]error{}},
		recorder: &memRecorder{},
	}
	opts := Options{
		ModLoader:           catalog.ModLoaderForge,
		Versions:            resolver.NewVersionSet("1.16.4", "1.16.5"),
		ResolveDependencies: deps,
		DownloadDir:         f.dir,
		RunID:               "run-test",
	}
	f.p = New(catalog.NewIndex(catalog.Document{Mods: mods}), f.details, f.fetcher, opts, zap.NewNop().Sugar()).
		WithRecorder(f.recorder).
		WithNotifier(func(e Event) { f.events = append(f.events, e) })
	return f
}

func (f *fixture) detail(modID, fileID int, url string, deps ...catalog.DependencyRef) {
	f.details.details[key(modID, fileID)] = catalog.FileDetail{DownloadURL: url, Dependencies: deps}
}

var testMods = []catalog.ModRecord{
	{ID: 1, Slug: "main", Name: "Main", Files: []catalog.FileRecord{forgeFile(11, "1.16.5")}},
	{ID: 2, Slug: "lib", Name: "Lib", Files: []catalog.FileRecord{forgeFile(21, "1.16.5")}},
	{ID: 3, Slug: "extra", Name: "Extra", Files: []catalog.FileRecord{forgeFile(31, "1.16.5")}},
	{ID: 4, Slug: "fabric-only", Name: "Fabric Only", Files: []catalog.FileRecord{
		{ProjectFileID: 41, ModLoader: catalog.ModLoaderFabric, GameVersion: "1.16.5"},
	}},
}

func TestRunDownloadsDependenciesBeforeMod(t *testing.T) {
	f := newFixture(t, testMods, true)
	f.detail(1, 11, "https://cdn.example/files/main-1.0.jar",
		catalog.DependencyRef{AddonID: 2, Type: catalog.DependencyRequired},
		catalog.DependencyRef{AddonID: 3, Type: catalog.DependencyOptional})
	f.detail(2, 21, "https://cdn.example/files/lib-2.0.jar")

	sum := f.p.Run(context.Background(), []string{"main"})
	require.True(t, sum.OK())
	require.Len(t, sum.Results, 1)

	r := sum.Results[0]
	require.NotNil(t, r.Artifact)
	assert.Equal(t, filepath.Join(f.dir, "main-1.0.jar"), r.Artifact.Path)
	require.Len(t, r.Dependencies, 1)
	assert.Equal(t, "lib", r.Dependencies[0].Slug)
	assert.Equal(t, "main", r.Dependencies[0].DependencyOf)

	assert.Equal(t, []string{"lib", "main"}, f.fetcher.order)
	assert.Equal(t, 2, sum.Files())

	require.Len(t, f.recorder.records, 2)
	assert.Equal(t, "run-test", f.recorder.records[0].RunID)
	assert.Equal(t, "main", f.recorder.records[0].DependencyOf)
	assert.Equal(t, "", f.recorder.records[1].DependencyOf)
}

func TestRunWithDependenciesDisabled(t *testing.T) {
	f := newFixture(t, testMods, false)
	f.detail(1, 11, "https://cdn.example/main.jar", catalog.DependencyRef{AddonID: 2, Type: catalog.DependencyRequired})

	sum := f.p.Run(context.Background(), []string{"main"})
	require.True(t, sum.OK())
	assert.Equal(t, []string{"main"}, f.fetcher.order)
	assert.Empty(t, sum.Results[0].Dependencies)
}

func TestRunModNotFoundContinues(t *testing.T) {
	f := newFixture(t, testMods, true)
	f.detail(2, 21, "https://cdn.example/lib.jar")

	sum := f.p.Run(context.Background(), []string{"missing", "lib"})
	require.Len(t, sum.Results, 2)
	assert.ErrorIs(t, sum.Results[0].Err, ErrModNotFound)
	assert.NoError(t, sum.Results[1].Err)
	assert.False(t, sum.OK())
	assert.Len(t, sum.Failed(), 1)
	assert.Equal(t, []string{"lib"}, f.fetcher.order)
}

func TestRunNoQualifyingFile(t *testing.T) {
	f := newFixture(t, testMods, true)

	sum := f.p.Run(context.Background(), []string{"fabric-only"})
	require.Len(t, sum.Results, 1)
	assert.ErrorIs(t, sum.Results[0].Err, ErrNoQualifyingFile)
	assert.Empty(t, f.details.calls, "no detail fetch without a selected file")
	assert.Empty(t, f.fetcher.order)
}

func TestRunDetailFailureIsFatalForMod(t *testing.T) {
	f := newFixture(t, testMods, true)
	f.details.errs[key(1, 11)] = errors.New("503 from detail endpoint")

	sum := f.p.Run(context.Background(), []string{"main"})
	assert.Error(t, sum.Results[0].Err)
	assert.Empty(t, f.fetcher.order)
}

func TestDependencyFailuresDoNotAbortPrimary(t *testing.T) {
	mods := append([]catalog.ModRecord{}, testMods...)
	f := newFixture(t, mods, true)
	f.detail(1, 11, "https://cdn.example/main.jar",
		catalog.DependencyRef{AddonID: 2, Type: catalog.DependencyRequired},   // download fails
		catalog.DependencyRef{AddonID: 4, Type: catalog.DependencyRequired},   // no forge file
		catalog.DependencyRef{AddonID: 999, Type: catalog.DependencyRequired}, // not in catalog
		catalog.DependencyRef{AddonID: 3, Type: catalog.DependencyRequired},   // detail fails
	)
	f.detail(2, 21, "https://cdn.example/lib.jar")
	f.details.errs[key(3, 31)] = errors.New("detail down")
	f.fetcher.fail["https://cdn.example/lib.jar"] = &downloader.DownloadError{Type: downloader.ErrorLengthMismatch, URL: "https://cdn.example/lib.jar"}

	sum := f.p.Run(context.Background(), []string{"main"})
	require.True(t, sum.OK(), "primary still delivered")

	r := sum.Results[0]
	require.NotNil(t, r.Artifact)
	assert.Empty(t, r.Dependencies)
	require.Len(t, r.DependencyErrors, 4)

	var unresolved, noFile, dlErr int
	for _, err := range r.DependencyErrors {
		switch {
		case errors.Is(err, ErrDependencyUnresolved):
			unresolved++
		case errors.Is(err, ErrNoQualifyingFile):
			noFile++
		case downloader.IsDownloadError(err):
			dlErr++
		}
	}
	assert.Equal(t, 1, unresolved)
	assert.Equal(t, 1, noFile)
	assert.Equal(t, 1, dlErr)
}

func TestPrimaryDownloadFailureIsFatal(t *testing.T) {
	f := newFixture(t, testMods, false)
	f.detail(1, 11, "https://cdn.example/main.jar")
	f.fetcher.fail["https://cdn.example/main.jar"] = &downloader.DownloadError{Type: downloader.ErrorMissingLength}

	sum := f.p.Run(context.Background(), []string{"main"})
	assert.True(t, downloader.IsDownloadError(sum.Results[0].Err))
	assert.False(t, sum.OK())

	var failed bool
	for _, e := range f.events {
		if e.Type == EventModFailed && e.Slug == "main" {
			failed = true
		}
	}
	assert.True(t, failed)
}

func TestSharedDependencyDownloadedOnce(t *testing.T) {
	f := newFixture(t, testMods, true)
	dep := catalog.DependencyRef{AddonID: 2, Type: catalog.DependencyRequired}
	f.detail(1, 11, "https://cdn.example/main.jar", dep)
	f.detail(3, 31, "https://cdn.example/extra.jar", dep)
	f.detail(2, 21, "https://cdn.example/lib.jar")

	sum := f.p.Run(context.Background(), []string{"main", "extra"})
	require.True(t, sum.OK())
	assert.Equal(t, []string{"lib", "main", "extra"}, f.fetcher.order)
	assert.True(t, sum.Results[1].Dependencies[0].Reused)
	assert.Equal(t, 3, sum.Files())
}

func TestDuplicateSlugProcessesEveryMatch(t *testing.T) {
	mods := []catalog.ModRecord{
		{ID: 1, Slug: "twin", Files: []catalog.FileRecord{forgeFile(11, "1.16.5")}},
		{ID: 2, Slug: "twin", Files: []catalog.FileRecord{forgeFile(21, "1.16.5")}},
	}
	f := newFixture(t, mods, false)
	f.detail(1, 11, "https://cdn.example/a.jar")
	f.detail(2, 21, "https://cdn.example/b.jar")

	sum := f.p.Run(context.Background(), []string{"twin"})
	require.Len(t, sum.Results, 2)
	assert.Equal(t, 1, sum.Results[0].Mod.ID)
	assert.Equal(t, 2, sum.Results[1].Mod.ID)
}

func TestRunStopsWhenContextEnds(t *testing.T) {
	f := newFixture(t, testMods, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum := f.p.Run(ctx, []string{"main", "lib"})
	assert.ErrorIs(t, sum.Err, context.Canceled)
	assert.Empty(t, sum.Results)
	assert.False(t, sum.OK())
}

func TestArtifactName(t *testing.T) {
	file := catalog.FileRecord{ProjectFileID: 77, FileName: "fallback.jar"}
	tests := []struct {
		url  string
		want string
	}{
		{"https://edge.forgecdn.net/files/3243/0/jei-1.16.5-7.6.4.jar", "jei-1.16.5-7.6.4.jar"},
		{"https://edge.forgecdn.net/files/1/2/Mod%20Name+1.jar", "Mod Name+1.jar"},
		{"https://cdn.example/", "fallback.jar"},
		{"", "fallback.jar"},
		{"https://cdn.example/dl.jar?token=abc", "dl.jar"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ArtifactName(tt.url, file))
		})
	}
	assert.Equal(t, "77.jar", ArtifactName("", catalog.FileRecord{ProjectFileID: 77}))
}

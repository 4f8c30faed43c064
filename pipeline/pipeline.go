package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"cfmods/catalog"
	"cfmods/downloader"
	"cfmods/resolver"

	"go.uber.org/zap"
)

// DetailFetcher loads the per-file detail document.
type DetailFetcher interface {
	GetFileDetail(ctx context.Context, modID, fileID int) (catalog.FileDetail, error)
}

// Fetcher writes one artifact to disk.
type Fetcher interface {
	Download(ctx context.Context, url, dest, label string) (downloader.Result, error)
}

// Record describes one artifact written by a run.
type Record struct {
	RunID         string
	Slug          string
	ModID         int
	ProjectFileID int
	FileName      string
	InstallPath   string
	Bytes         int64
	SHA1          string
	DependencyOf  string
}

// Recorder persists completed downloads.
type Recorder interface {
	RecordDownload(r Record) error
}

// Options is the per-run configuration.
type Options struct {
	ModLoader           catalog.ModLoader
	Versions            resolver.VersionSet
	ResolveDependencies bool
	DownloadDir         string
	RunID               string
}

// Artifact is a file the run delivered.
type Artifact struct {
	Slug          string
	ModID         int
	ProjectFileID int
	Path          string
	Bytes         int64
	SHA1          string
	DependencyOf  string
	// Reused is set when the file was already written earlier in this run.
	Reused bool
}

// ModResult is the outcome for one catalog match of a requested slug.
type ModResult struct {
	Slug             string
	Mod              catalog.ModRecord
	File             catalog.FileRecord
	Artifact         *Artifact
	Dependencies     []Artifact
	DependencyErrors []error
	Err              error
}

// Summary collects every result of a run.
type Summary struct {
	Results []ModResult
	// Err is set when the run stopped early because the context ended.
	Err error
}

// Failed lists results whose requested artifact was not delivered.
func (s Summary) Failed() []ModResult {
	var out []ModResult
	for _, r := range s.Results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// OK reports whether every requested mod was delivered.
func (s Summary) OK() bool {
	return s.Err == nil && len(s.Failed()) == 0
}

// Files counts artifacts written, dependencies included.
func (s Summary) Files() int {
	n := 0
	for _, r := range s.Results {
		if r.Artifact != nil && !r.Artifact.Reused {
			n++
		}
		for _, d := range r.Dependencies {
			if !d.Reused {
				n++
			}
		}
	}
	return n
}

// Pipeline resolves requested slugs and downloads their artifacts, one mod
// at a time. Dependencies of a mod are downloaded before the mod itself.
type Pipeline struct {
	index    *catalog.Index
	details  DetailFetcher
	fetcher  Fetcher
	opts     Options
	log      *zap.SugaredLogger
	recorder Recorder
	notify   func(Event)

	written map[int]string
}

// New creates a Pipeline over an index built from the current catalog.
func New(index *catalog.Index, details DetailFetcher, fetcher Fetcher, opts Options, log *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		index:   index,
		details: details,
		fetcher: fetcher,
		opts:    opts,
		log:     log,
		notify:  func(Event) {},
		written: make(map[int]string),
	}
}

// WithRecorder stores each completed download in r.
func (p *Pipeline) WithRecorder(r Recorder) *Pipeline {
	p.recorder = r
	return p
}

// WithNotifier sends every event to fn.
func (p *Pipeline) WithNotifier(fn func(Event)) *Pipeline {
	if fn != nil {
		p.notify = fn
	}
	return p
}

// Run processes slugs in the given order. A failure for one slug never
// stops the others.
func (p *Pipeline) Run(ctx context.Context, slugs []string) Summary {
	var sum Summary
	for _, slug := range slugs {
		if err := ctx.Err(); err != nil {
			sum.Err = err
			return sum
		}

		p.log.Infow("Looking for mod", "slug", slug)
		matches := p.index.FindBySlug(slug)
		if len(matches) == 0 {
			err := fmt.Errorf("%w: %s", ErrModNotFound, slug)
			p.log.Errorw("No mod found", "slug", slug)
			p.notify(Event{Type: EventModFailed, Slug: slug, Name: slug, Err: err, Message: "not found in catalog"})
			sum.Results = append(sum.Results, ModResult{Slug: slug, Err: err})
			continue
		}
		if len(matches) > 1 {
			p.log.Warnw("Slug matches several catalog entries, processing all of them", "slug", slug, "matches", len(matches))
		}

		for _, mod := range matches {
			sum.Results = append(sum.Results, p.Process(ctx, slug, mod))
		}
	}
	if err := ctx.Err(); err != nil {
		sum.Err = err
	}
	return sum
}

// Process handles one catalog mod: select, detail, dependencies, download.
func (p *Pipeline) Process(ctx context.Context, slug string, mod catalog.ModRecord) ModResult {
	res := ModResult{Slug: slug, Mod: mod}
	log := p.log.With(zap.String("slug", mod.Slug), zap.Int("mod_id", mod.ID))

	log.Infow("Assembling mod", "name", mod.DisplayName())
	p.notify(Event{Type: EventModStarted, Slug: mod.Slug, Name: mod.DisplayName()})

	fail := func(err error) ModResult {
		res.Err = err
		p.notify(Event{Type: EventModFailed, Slug: mod.Slug, Name: mod.DisplayName(), Err: err})
		return res
	}

	file, ok := resolver.SelectFile(mod, p.opts.ModLoader, p.opts.Versions)
	if !ok {
		log.Errorw(fmt.Sprintf("We did not find a %s version for %s. Perhaps try with a different modloader?",
			titleCase(p.opts.ModLoader.String()), mod.DisplayName()),
			"versions", p.opts.Versions.Sorted())
		return fail(fmt.Errorf("%w: %s for %s %s", ErrNoQualifyingFile, mod.Slug,
			p.opts.ModLoader, strings.Join(p.opts.Versions.Sorted(), ",")))
	}
	res.File = file
	log.Infow("Found version", "file", file.FileName, "game_version", file.GameVersion)
	p.notify(Event{Type: EventFileSelected, Slug: mod.Slug, Name: mod.DisplayName(), FileName: file.FileName})

	detail, err := p.details.GetFileDetail(ctx, mod.ID, file.ProjectFileID)
	if err != nil {
		log.Errorw("Failed to fetch file detail", zap.Error(err))
		return fail(err)
	}

	if p.opts.ResolveDependencies {
		deps := resolver.ResolveDependencies(detail, p.index)
		for _, id := range deps.Unresolved {
			derr := fmt.Errorf("%w: addon %d required by %s", ErrDependencyUnresolved, id, mod.Slug)
			log.Warnw("Required dependency is not in the catalog, skipping", "addon_id", id)
			p.notify(Event{Type: EventWarning, Slug: mod.Slug, Name: mod.DisplayName(), Err: derr})
			res.DependencyErrors = append(res.DependencyErrors, derr)
		}
		for _, dep := range deps.Mods {
			art, derr := p.fetchDependency(ctx, mod, dep)
			if derr != nil {
				log.Warnw("Skipping dependency", "dependency", dep.Slug, zap.Error(derr))
				res.DependencyErrors = append(res.DependencyErrors, derr)
				continue
			}
			res.Dependencies = append(res.Dependencies, art)
		}
	}

	art, err := p.download(ctx, mod, file, detail, "")
	if err != nil {
		log.Errorw("Failed to download mod", zap.Error(err))
		return fail(err)
	}
	res.Artifact = &art
	p.notify(Event{Type: EventModDone, Slug: mod.Slug, Name: mod.DisplayName(), FileName: filepath.Base(art.Path)})
	return res
}

func (p *Pipeline) fetchDependency(ctx context.Context, parent, dep catalog.ModRecord) (Artifact, error) {
	file, ok := resolver.SelectFile(dep, p.opts.ModLoader, p.opts.Versions)
	if !ok {
		return Artifact{}, fmt.Errorf("dependency %s of %s: %w", dep.Slug, parent.Slug, ErrNoQualifyingFile)
	}
	detail, err := p.details.GetFileDetail(ctx, dep.ID, file.ProjectFileID)
	if err != nil {
		return Artifact{}, fmt.Errorf("dependency %s of %s: %w", dep.Slug, parent.Slug, err)
	}
	return p.download(ctx, dep, file, detail, parent.Slug)
}

func (p *Pipeline) download(ctx context.Context, mod catalog.ModRecord, file catalog.FileRecord, detail catalog.FileDetail, dependencyOf string) (Artifact, error) {
	art := Artifact{
		Slug:          mod.Slug,
		ModID:         mod.ID,
		ProjectFileID: file.ProjectFileID,
		DependencyOf:  dependencyOf,
	}
	if prev, ok := p.written[file.ProjectFileID]; ok {
		p.log.Infow("Already downloaded in this run", "slug", mod.Slug, "path", prev)
		art.Path = prev
		art.Reused = true
		return art, nil
	}

	dest := filepath.Join(p.opts.DownloadDir, ArtifactName(detail.DownloadURL, file))
	ev := Event{Slug: mod.Slug, Name: mod.DisplayName(), FileName: filepath.Base(dest), DependencyOf: dependencyOf}
	ev.Type = EventDownloadStarted
	p.notify(ev)

	result, err := p.fetcher.Download(ctx, detail.DownloadURL, dest, mod.Slug)
	if err != nil {
		ev.Type, ev.Err = EventDownloadFailed, err
		p.notify(ev)
		return art, err
	}
	art.Path, art.Bytes, art.SHA1 = result.Path, result.Bytes, result.SHA1
	p.written[file.ProjectFileID] = result.Path

	if p.recorder != nil {
		rec := Record{
			RunID:         p.opts.RunID,
			Slug:          mod.Slug,
			ModID:         mod.ID,
			ProjectFileID: file.ProjectFileID,
			FileName:      filepath.Base(result.Path),
			InstallPath:   result.Path,
			Bytes:         result.Bytes,
			SHA1:          result.SHA1,
			DependencyOf:  dependencyOf,
		}
		if err := p.recorder.RecordDownload(rec); err != nil {
			p.log.Warnw("Failed to record download history", zap.Error(err))
		}
	}

	ev.Type = EventDownloadFinished
	ev.Message = strconv.FormatInt(result.Bytes, 10)
	p.notify(ev)
	return art, nil
}

// ArtifactName is the base name of the download URL's path, falling back to
// the catalog file name when the URL has none.
func ArtifactName(downloadURL string, file catalog.FileRecord) string {
	if u, err := url.Parse(downloadURL); err == nil {
		base := path.Base(u.Path)
		if base != "" && base != "." && base != "/" && base != ".." {
			return base
		}
	}
	if file.FileName != "" {
		return filepath.Base(file.FileName)
	}
	return strconv.Itoa(file.ProjectFileID) + ".jar"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Package packager drives a full add-on build: manifest generation, pack
// tree assembly with normalized textures, archiving, and post-build
// structural validation.
package packager

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"modporter.ai/internal/addon/archive"
	"modporter.ai/internal/addon/manifest"
	"modporter.ai/internal/addon/modinfo"
	"modporter.ai/internal/addon/textures"
	"modporter.ai/internal/batch"
	"modporter.ai/internal/config"
	"modporter.ai/internal/persistence/buildlog"
	"modporter.ai/internal/persistence/convcache"
)

// Pipeline stages, in execution order. A build either reaches
// StageSucceeded or stops at the first failing stage.
const (
	StageInitialized        = "initialized"
	StageManifestsGenerated = "manifests_generated"
	StageTreeAssembled      = "tree_assembled"
	StageArchived           = "archived"
	StageValidated          = "validated"
	StageSucceeded          = "succeeded"
	StageFailed             = "failed"
)

// TextureInput is one located texture: discovery supplies the declared
// usage kind and either the source bytes or nil for a missing asset.
type TextureInput struct {
	Name  string
	Usage string
	Data  []byte
}

// DefinitionFile is a pre-rendered behavior-pack JSON file (blocks/,
// items/, entities/ subpaths relative to the behavior pack root).
type DefinitionFile struct {
	Rel  string
	Data []byte
}

// Request is one build's complete input.
type Request struct {
	Mod         modinfo.ModInfo
	Textures    []TextureInput
	Definitions []DefinitionFile
}

// Result is the structured build outcome. Success=false means no archive
// was produced; Success=true with Validation.Valid=false means the archive
// exists but failed structural validation.
type Result struct {
	Success       bool            `json:"success"`
	Stage         string          `json:"stage"`
	FailedStage   string          `json:"failed_stage,omitempty"`
	ArchivePath   string          `json:"archive_path,omitempty"`
	FileSizeBytes int64           `json:"file_size_bytes,omitempty"`
	Validation    archive.Report  `json:"validation"`
	Errors        []string        `json:"errors,omitempty"`
	CacheStats    convcache.Stats `json:"cache_stats"`
}

// Packager holds the injected pipeline components. Construct once per
// process and share across builds; the conversion cache is the only state
// shared between concurrent builds.
type Packager struct {
	cfg    config.Config
	cache  *convcache.Cache
	events *buildlog.Writer
	logger *log.Logger
}

func New(cfg config.Config, cache *convcache.Cache, events *buildlog.Writer, logger *log.Logger) *Packager {
	if logger == nil {
		logger = log.New(os.Stdout, "[packager] ", log.LstdFlags|log.Lmicroseconds)
	}
	return &Packager{cfg: cfg, cache: cache, events: events, logger: logger}
}

// Build runs the pipeline to a terminal state. Stage failures halt the
// build; texture-level problems never do (degraded sources become
// fallbacks inside the normalizer).
func (p *Packager) Build(req Request) Result {
	slug := req.Mod.Slug()
	res := Result{Stage: StageInitialized}
	p.event(slug, StageInitialized, "build started", nil)

	behavior, resource, err := manifest.Generate(req.Mod)
	if err != nil {
		return p.fail(&res, slug, StageManifestsGenerated, err)
	}
	res.Stage = StageManifestsGenerated
	p.event(slug, StageManifestsGenerated, "", nil)

	treeRoot, err := p.assembleTree(slug, behavior, resource, req)
	if err != nil {
		return p.fail(&res, slug, StageTreeAssembled, err)
	}
	defer os.RemoveAll(treeRoot)
	res.Stage = StageTreeAssembled
	p.event(slug, StageTreeAssembled, treeRoot, nil)

	dest := filepath.Join(p.cfg.OutputDir, slug+".mcaddon")
	size, err := archive.Write(treeRoot, dest)
	if err != nil {
		return p.fail(&res, slug, StageArchived, err)
	}
	res.Stage = StageArchived
	res.ArchivePath = dest
	res.FileSizeBytes = size
	p.event(slug, StageArchived, dest, nil)

	res.Validation = archive.Validate(dest)
	res.Stage = StageValidated
	if !res.Validation.Valid {
		// The archive stays on disk: a partially correct artifact is still
		// useful for diagnosis.
		res.Errors = append(res.Errors, res.Validation.Errors...)
		p.event(slug, StageValidated, "structural validation failed", nil)
	} else {
		p.event(slug, StageValidated, "", nil)
	}

	res.Success = true
	res.Stage = StageSucceeded
	if p.cache != nil {
		res.CacheStats = p.cache.Stats()
	}
	p.event(slug, StageSucceeded, fmt.Sprintf("%s (%d bytes)", dest, size), nil)
	return res
}

func (p *Packager) fail(res *Result, slug, stage string, err error) Result {
	p.logger.Printf("build %s failed at %s: %v", slug, stage, err)
	p.event(slug, stage, "", err)
	res.Success = false
	res.Stage = StageFailed
	res.FailedStage = stage
	res.Errors = append(res.Errors, err.Error())
	if p.cache != nil {
		res.CacheStats = p.cache.Stats()
	}
	return *res
}

func (p *Packager) event(build, stage, msg string, err error) {
	ev := buildlog.Event{Build: build, Stage: stage, Message: msg}
	if err != nil {
		ev.Err = err.Error()
	}
	if werr := p.events.Write(ev); werr != nil {
		p.logger.Printf("build log: %v", werr)
	}
}

// assembleTree lays out the two-pack directory structure in a private
// scratch directory and returns its root.
func (p *Packager) assembleTree(slug string, behavior, resource manifest.Manifest, req Request) (string, error) {
	scratch := p.cfg.WorkDir
	if scratch == "" {
		scratch = os.TempDir()
	}
	treeRoot, err := os.MkdirTemp(scratch, "pack_"+slug+"_*")
	if err != nil {
		return "", fmt.Errorf("scratch tree: %w", err)
	}

	behaviorRoot := filepath.Join(treeRoot, "behavior_packs", slug)
	resourceRoot := filepath.Join(treeRoot, "resource_packs", slug)

	if err := writeManifest(filepath.Join(behaviorRoot, "manifest.json"), behavior); err != nil {
		return "", err
	}
	if err := writeManifest(filepath.Join(resourceRoot, "manifest.json"), resource); err != nil {
		return "", err
	}

	for _, def := range req.Definitions {
		dst := filepath.Join(behaviorRoot, filepath.FromSlash(def.Rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return "", fmt.Errorf("definition %s: %w", def.Rel, err)
		}
		if err := os.WriteFile(dst, def.Data, 0o644); err != nil {
			return "", fmt.Errorf("definition %s: %w", def.Rel, err)
		}
	}

	if err := p.writeTextures(resourceRoot, slug, req.Textures); err != nil {
		return "", err
	}
	return treeRoot, nil
}

type normalized struct {
	result textures.Result
	data   []byte
}

// writeTextures converts every located texture through the worker pool and
// writes the normalized PNGs under the resource pack. Conversion never
// fails per item; batch-level timeouts are reported through the logger but
// do not fail the build.
func (p *Packager) writeTextures(resourceRoot, slug string, inputs []TextureInput) error {
	if len(inputs) == 0 {
		return nil
	}

	norm := textures.NewNormalizer(p.cache)
	cons := textures.Constraints{
		MaxDimension:      p.cfg.Textures.MaxDimension,
		RequirePowerOfTwo: p.cfg.Textures.RequirePowerOfTwo,
		FallbackSize:      p.cfg.Textures.FallbackSize,
		Version:           "v1",
	}

	opts := batch.Options{
		Workers: p.cfg.Batch.Workers,
		Timeout: time.Duration(p.cfg.Batch.ItemTimeoutSec) * time.Second,
		OnProgress: func(done, total int) {
			if done == total {
				p.logger.Printf("build %s: converted %d/%d textures", slug, done, total)
			}
		},
	}
	results := batch.Map(inputs, func(in TextureInput) (normalized, error) {
		r, data := norm.Normalize(in.Data, in.Name, in.Usage, cons)
		return normalized{result: r, data: data}, nil
	}, opts)

	for i, r := range results {
		if r.Err != nil {
			p.logger.Printf("build %s: texture %q: %v", slug, inputs[i].Name, r.Err)
			continue
		}
		dst := filepath.Join(resourceRoot, filepath.FromSlash(r.Value.result.OutputPath))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("texture %s: %w", r.Value.result.OutputPath, err)
		}
		if err := os.WriteFile(dst, r.Value.data, 0o644); err != nil {
			return fmt.Errorf("texture %s: %w", r.Value.result.OutputPath, err)
		}
	}
	return nil
}

func writeManifest(path string, m manifest.Manifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

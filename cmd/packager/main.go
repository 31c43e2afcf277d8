package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"modporter.ai/internal/addon/modinfo"
	"modporter.ai/internal/config"
	"modporter.ai/internal/packager"
	"modporter.ai/internal/persistence/buildlog"
	"modporter.ai/internal/persistence/convcache"
)

func main() {
	var (
		modPath     = flag.String("mod", "", "mod description yaml (required)")
		texturesDir = flag.String("textures", "", "located textures directory; first-level subdirectories name the usage kind")
		defsDir     = flag.String("definitions", "", "pre-rendered behavior-pack definition files (optional)")
		configPath  = flag.String("config", "", "pipeline config yaml (optional)")
		outDir      = flag.String("out", "", "output directory (overrides config)")
		dataDir     = flag.String("data", "./data", "runtime data directory (cache + logs)")
		noCache     = flag.Bool("no_cache", false, "disable the persisted conversion cache")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[packager] ", log.LstdFlags|log.Lmicroseconds)

	if strings.TrimSpace(*modPath) == "" {
		logger.Fatalf("-mod is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if strings.TrimSpace(*outDir) != "" {
		cfg.OutputDir = *outDir
	}
	if strings.TrimSpace(*dataDir) != "" {
		cfg.CachePath = filepath.Join(*dataDir, "cache", "conversions.db")
		cfg.LogDir = filepath.Join(*dataDir, "logs")
	}

	mod, err := loadModInfo(*modPath)
	if err != nil {
		logger.Fatalf("load mod description: %v", err)
	}

	var store *convcache.SQLiteStore
	if !*noCache {
		store, err = convcache.Open(cfg.CachePath)
		if err != nil {
			logger.Fatalf("open conversion cache: %v", err)
		}
		defer store.Close()
	}
	cache := convcache.New(store)

	events := buildlog.NewWriter(cfg.LogDir)
	defer events.Close()

	req := packager.Request{Mod: mod}
	if strings.TrimSpace(*texturesDir) != "" {
		req.Textures, err = loadTextures(*texturesDir)
		if err != nil {
			logger.Fatalf("load textures: %v", err)
		}
	}
	if strings.TrimSpace(*defsDir) != "" {
		req.Definitions, err = loadDefinitions(*defsDir)
		if err != nil {
			logger.Fatalf("load definitions: %v", err)
		}
	}

	p := packager.New(cfg, cache, events, logger)
	res := p.Build(req)

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		logger.Fatalf("encode result: %v", err)
	}
	fmt.Println(string(out))

	if !res.Success {
		os.Exit(1)
	}
}

func loadModInfo(path string) (modinfo.ModInfo, error) {
	var mod modinfo.ModInfo
	b, err := os.ReadFile(path)
	if err != nil {
		return mod, err
	}
	if err := yaml.Unmarshal(b, &mod); err != nil {
		return mod, fmt.Errorf("%s: %w", path, err)
	}
	return mod, nil
}

// loadTextures lists <dir>/<usage>/<file> pairs. A zero-length file stands
// in for a texture that discovery located but could not read.
func loadTextures(dir string) ([]packager.TextureInput, error) {
	usages, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []packager.TextureInput
	for _, u := range usages {
		if !u.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(dir, u.Name()))
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			b, err := os.ReadFile(filepath.Join(dir, u.Name(), f.Name()))
			if err != nil {
				return nil, err
			}
			var data []byte
			if len(b) > 0 {
				data = b
			}
			out = append(out, packager.TextureInput{
				Name:  f.Name(),
				Usage: u.Name(),
				Data:  data,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Usage != out[j].Usage {
			return out[i].Usage < out[j].Usage
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func loadDefinitions(dir string) ([]packager.DefinitionFile, error) {
	var out []packager.DefinitionFile
	err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		out = append(out, packager.DefinitionFile{Rel: filepath.ToSlash(rel), Data: b})
		return nil
	})
	return out, err
}

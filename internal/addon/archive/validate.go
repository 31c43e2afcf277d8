package archive

import (
	"path"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Report is the structural validation result for a produced archive.
type Report struct {
	WellFormed      bool     `json:"is_well_formed"`
	HasBehaviorPack bool     `json:"has_behavior_pack"`
	HasResourcePack bool     `json:"has_resource_pack"`
	ManifestCount   int      `json:"manifest_count"`
	Errors          []string `json:"errors,omitempty"`
	Valid           bool     `json:"is_valid"`
}

// Validate opens the archive and checks it for the expected top-level pack
// roots and at least one manifest per pack. It never fails outright: a
// malformed or structurally empty archive yields a report with Valid=false
// and a descriptive error list.
func Validate(archivePath string) Report {
	var r Report

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		r.Errors = append(r.Errors, "not a well-formed zip archive: "+err.Error())
		return r
	}
	defer zr.Close()
	r.WellFormed = true

	for _, f := range zr.File {
		name := path.Clean(f.Name)
		if strings.HasPrefix(name, "behavior_packs/") {
			r.HasBehaviorPack = true
		}
		if strings.HasPrefix(name, "resource_packs/") {
			r.HasResourcePack = true
		}
		if path.Base(name) == "manifest.json" {
			r.ManifestCount++
		}
	}

	if !r.HasBehaviorPack && !r.HasResourcePack {
		r.Errors = append(r.Errors, "no behavior_packs/ or resource_packs/ root found")
	}
	if r.ManifestCount == 0 {
		r.Errors = append(r.Errors, "no manifest.json entries found")
	}

	r.Valid = r.WellFormed && r.ManifestCount >= 1 && (r.HasBehaviorPack || r.HasResourcePack)
	return r
}

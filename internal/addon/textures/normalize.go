// Package textures converts imported image assets to the target platform's
// dimensional constraints: RGBA PNG output, power-of-two dimensions capped
// at a configured maximum, with deterministic placeholder generation for
// missing or unreadable sources. Results are memoized through a
// content-hash keyed cache so repeat conversions never re-decode.
package textures

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"path"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"

	"modporter.ai/internal/persistence/convcache"
)

// Usage kinds located by the discovery stage.
const (
	UsageBlock  = "block"
	UsageItem   = "item"
	UsageEntity = "entity"
	UsageOther  = "other"
)

// Optimization labels recorded on a result, in application order.
const (
	OptFormatNormalized = "format_normalized"
	OptResized          = "resized"
	OptDimensionClamped = "dimension_clamped"
)

// Result describes one normalized asset. Created once per
// (source bytes, constraints) pair and never mutated; a changed input
// produces a new result under a new content hash.
type Result struct {
	Source         string   `json:"source"`
	OutputPath     string   `json:"output_path"`
	OriginalWidth  int      `json:"original_width"`
	OriginalHeight int      `json:"original_height"`
	OutputWidth    int      `json:"output_width"`
	OutputHeight   int      `json:"output_height"`
	Format         string   `json:"format"`
	WasFallback    bool     `json:"was_fallback"`
	Optimizations  []string `json:"optimizations,omitempty"`
	ContentHash    string   `json:"content_hash"`
}

// Normalizer converts assets under a fixed constraint set, consulting a
// conversion cache before doing any decode or resize work.
type Normalizer struct {
	cache *convcache.Cache
}

func NewNormalizer(cache *convcache.Cache) *Normalizer {
	return &Normalizer{cache: cache}
}

// Normalize converts one asset. src == nil means the discovery stage found
// no bytes for this texture. The call never fails: corrupt and absent
// sources both yield a valid fallback result. The returned bytes are the
// encoded PNG ready to be written at Result.OutputPath.
func (n *Normalizer) Normalize(src []byte, name, usage string, c Constraints) (Result, []byte) {
	key := cacheKey(src, usage, c)

	if n.cache != nil {
		if e, ok := n.cache.Get(key); ok {
			var r Result
			if err := json.Unmarshal(e.Meta, &r); err == nil {
				return r, e.Blob
			}
		}
	}

	r, pngBytes := n.convert(src, name, usage, c)
	r.ContentHash = key

	if n.cache != nil {
		meta, err := json.Marshal(r)
		if err == nil {
			n.cache.Set(key, convcache.Entry{Meta: meta, Blob: pngBytes})
		}
	}
	return r, pngBytes
}

func (n *Normalizer) convert(src []byte, name, usage string, c Constraints) (Result, []byte) {
	r := Result{
		Source: name,
		Format: "rgba-png",
	}

	var img image.Image
	var srcFormat string
	if src == nil {
		// Absent sources always use the fallback stem, even when
		// discovery declared a name.
		r.WasFallback = true
		name = ""
		r.Source = ""
	} else {
		decoded, format, err := image.Decode(bytes.NewReader(src))
		if err != nil {
			// Corrupt input degrades to the same fallback as a missing one.
			r.WasFallback = true
		} else {
			img = decoded
			srcFormat = format
		}
	}

	if r.WasFallback {
		img = fallbackImage(usage, c.FallbackSize)
		if r.Source == "" {
			r.Source = "fallback_" + usage
		}
	}

	b := img.Bounds()
	r.OriginalWidth, r.OriginalHeight = b.Dx(), b.Dy()

	if srcFormat != "" && srcFormat != "png" {
		r.Optimizations = append(r.Optimizations, OptFormatNormalized)
	}

	outW, outH := fitDimensions(r.OriginalWidth, r.OriginalHeight, c)
	r.OutputWidth, r.OutputHeight = outW, outH

	rgba := image.NewRGBA(image.Rect(0, 0, outW, outH))
	if outW == r.OriginalWidth && outH == r.OriginalHeight {
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	} else {
		// Nearest neighbor keeps pixel-art edges crisp.
		xdraw.NearestNeighbor.Scale(rgba, rgba.Bounds(), img, b, xdraw.Src, nil)
		r.Optimizations = append(r.Optimizations, OptResized)
		if c.MaxDimension > 0 && (r.OriginalWidth > c.MaxDimension || r.OriginalHeight > c.MaxDimension) {
			r.Optimizations = append(r.Optimizations, OptDimensionClamped)
		}
	}

	r.OutputPath = outputPath(name, usage)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		// Encoding an in-memory RGBA image cannot fail in practice; keep the
		// no-error contract by degrading to an empty payload.
		return r, nil
	}
	return r, buf.Bytes()
}

// usageDirs maps a usage kind onto its texture subdirectory.
var usageDirs = map[string]string{
	UsageBlock:  "blocks",
	UsageItem:   "items",
	UsageEntity: "entity",
}

func outputPath(name, usage string) string {
	dir, ok := usageDirs[usage]
	if !ok {
		dir = "other"
	}
	stem := strings.TrimSuffix(path.Base(name), path.Ext(name))
	if stem == "" || stem == "." {
		stem = "fallback_" + usage
	}
	return path.Join("textures", dir, stem+".png")
}

func cacheKey(src []byte, usage string, c Constraints) string {
	h := sha256.New()
	if src == nil {
		fmt.Fprintf(h, "missing:%s", usage)
	} else {
		h.Write(src)
	}
	fmt.Fprintf(h, "|%s|%s|%d|%t|%d", usage, c.Version, c.MaxDimension, c.RequirePowerOfTwo, c.FallbackSize)
	return hex.EncodeToString(h.Sum(nil))
}

package textures

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"modporter.ai/internal/persistence/convcache"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x40, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestNormalize_RoundsUpToPowerOfTwo(t *testing.T) {
	n := NewNormalizer(nil)
	r, data := n.Normalize(encodePNG(t, 33, 45), "machine.png", UsageBlock, DefaultConstraints())

	if r.OutputWidth != 64 || r.OutputHeight != 64 {
		t.Fatalf("output %dx%d want 64x64", r.OutputWidth, r.OutputHeight)
	}
	if r.WasFallback {
		t.Fatalf("unexpected fallback")
	}
	if !hasOpt(r, OptResized) {
		t.Fatalf("optimizations=%v want %s", r.Optimizations, OptResized)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 64 {
		t.Fatalf("payload %dx%d want 64x64", b.Dx(), b.Dy())
	}
}

func TestNormalize_ClampsToMaximum(t *testing.T) {
	n := NewNormalizer(nil)
	r, _ := n.Normalize(encodePNG(t, 2048, 2048), "huge.png", UsageBlock, DefaultConstraints())

	if r.OutputWidth != 1024 || r.OutputHeight != 1024 {
		t.Fatalf("output %dx%d want 1024x1024", r.OutputWidth, r.OutputHeight)
	}
	if !hasOpt(r, OptResized) || !hasOpt(r, OptDimensionClamped) {
		t.Fatalf("optimizations=%v want resized+clamped", r.Optimizations)
	}
}

func TestNormalize_NonPowerOfTwoMaxRoundsDown(t *testing.T) {
	n := NewNormalizer(nil)
	c := DefaultConstraints()
	c.MaxDimension = 1000
	r, _ := n.Normalize(encodePNG(t, 2048, 2048), "huge.png", UsageBlock, c)

	if r.OutputWidth != 512 || r.OutputHeight != 512 {
		t.Fatalf("output %dx%d want 512x512 (cap 1000 rounded down)", r.OutputWidth, r.OutputHeight)
	}
}

func TestNormalize_AbsentInputYieldsFallback(t *testing.T) {
	n := NewNormalizer(nil)
	r, data := n.Normalize(nil, "", UsageBlock, DefaultConstraints())

	if !r.WasFallback {
		t.Fatalf("want was_fallback=true")
	}
	if r.OutputWidth != 16 || r.OutputHeight != 16 {
		t.Fatalf("output %dx%d want 16x16", r.OutputWidth, r.OutputHeight)
	}
	if r.Source != "fallback_block" {
		t.Fatalf("source=%q want fallback_block", r.Source)
	}
	if r.OutputPath != "textures/blocks/fallback_block.png" {
		t.Fatalf("path=%q", r.OutputPath)
	}
	if len(data) == 0 {
		t.Fatalf("empty fallback payload")
	}
}

func TestNormalize_CorruptInputMatchesAbsentShape(t *testing.T) {
	n := NewNormalizer(nil)
	r, _ := n.Normalize([]byte("definitely not an image"), "broken.png", UsageItem, DefaultConstraints())

	if !r.WasFallback {
		t.Fatalf("want was_fallback=true for corrupt input")
	}
	if r.OutputWidth != 16 || r.OutputHeight != 16 {
		t.Fatalf("output %dx%d want 16x16", r.OutputWidth, r.OutputHeight)
	}
	if r.OutputPath != "textures/items/broken.png" {
		t.Fatalf("path=%q", r.OutputPath)
	}
}

func TestNormalize_FallbackDeterministic(t *testing.T) {
	n := NewNormalizer(nil)
	_, d1 := n.Normalize(nil, "", UsageEntity, DefaultConstraints())
	_, d2 := n.Normalize(nil, "", UsageEntity, DefaultConstraints())
	if !bytes.Equal(d1, d2) {
		t.Fatalf("fallback payload not deterministic")
	}
}

func TestNormalize_FormatNormalizedLabel(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}

	n := NewNormalizer(nil)
	r, data := n.Normalize(buf.Bytes(), "photo.jpg", UsageOther, DefaultConstraints())

	if !hasOpt(r, OptFormatNormalized) {
		t.Fatalf("optimizations=%v want %s", r.Optimizations, OptFormatNormalized)
	}
	if r.OutputPath != "textures/other/photo.png" {
		t.Fatalf("path=%q", r.OutputPath)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("output not png: %v", err)
	}
}

func TestNormalize_IdempotentOnOwnOutput(t *testing.T) {
	n := NewNormalizer(nil)
	c := DefaultConstraints()
	r1, out1 := n.Normalize(encodePNG(t, 33, 45), "machine.png", UsageBlock, c)

	r2, out2 := n.Normalize(out1, "machine.png", UsageBlock, c)
	if r2.OutputWidth != r1.OutputWidth || r2.OutputHeight != r1.OutputHeight {
		t.Fatalf("re-normalize changed dims: %dx%d vs %dx%d",
			r2.OutputWidth, r2.OutputHeight, r1.OutputWidth, r1.OutputHeight)
	}
	if hasOpt(r2, OptResized) {
		t.Fatalf("re-normalize resized an already conforming image")
	}
	if !bytes.Equal(out1, out2) {
		t.Fatalf("re-normalize changed payload")
	}
}

func TestNormalize_CacheHitSkipsReconversion(t *testing.T) {
	cache := convcache.New(nil)
	n := NewNormalizer(cache)
	src := encodePNG(t, 33, 45)
	c := DefaultConstraints()

	r1, d1 := n.Normalize(src, "machine.png", UsageBlock, c)
	r2, d2 := n.Normalize(src, "machine.png", UsageBlock, c)

	if r1.ContentHash == "" || r1.ContentHash != r2.ContentHash {
		t.Fatalf("content hash mismatch: %q vs %q", r1.ContentHash, r2.ContentHash)
	}
	if !bytes.Equal(d1, d2) {
		t.Fatalf("payload mismatch on cache hit")
	}
	s := cache.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Stores != 1 {
		t.Fatalf("stats=%+v want 1 hit / 1 miss / 1 store", s)
	}
}

func TestFitDimensions(t *testing.T) {
	c := DefaultConstraints()
	cases := []struct {
		w, h         int
		wantW, wantH int
	}{
		{16, 16, 16, 16},
		{33, 45, 64, 64},
		{1024, 1024, 1024, 1024},
		{2048, 2048, 1024, 1024},
		{1, 1, 1, 1},
		{17, 16, 32, 32},
	}
	for _, tc := range cases {
		w, h := fitDimensions(tc.w, tc.h, c)
		if w != tc.wantW || h != tc.wantH {
			t.Fatalf("fit(%d,%d)=(%d,%d) want (%d,%d)", tc.w, tc.h, w, h, tc.wantW, tc.wantH)
		}
	}
}

func hasOpt(r Result, opt string) bool {
	for _, o := range r.Optimizations {
		if o == opt {
			return true
		}
	}
	return false
}

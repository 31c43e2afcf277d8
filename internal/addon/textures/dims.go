package textures

// Constraints captures the target platform's texture limits. Version tags
// the constraint set for cache keying: bumping it invalidates prior results.
type Constraints struct {
	MaxDimension      int
	RequirePowerOfTwo bool
	FallbackSize      int
	Version           string
}

func DefaultConstraints() Constraints {
	return Constraints{
		MaxDimension:      1024,
		RequirePowerOfTwo: true,
		FallbackSize:      16,
		Version:           "v1",
	}
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func prevPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p<<1 <= n {
		p <<= 1
	}
	return p
}

// fitDimensions applies the platform rules to a source size: if either
// dimension is not a power of two, both round up to the next power of two;
// anything over the maximum clamps to the maximum, rounding down to the
// previous power of two when the maximum itself is not one.
func fitDimensions(w, h int, c Constraints) (int, int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if c.RequirePowerOfTwo && (!isPowerOfTwo(w) || !isPowerOfTwo(h)) {
		w = nextPowerOfTwo(w)
		h = nextPowerOfTwo(h)
	}
	if c.MaxDimension > 0 && (w > c.MaxDimension || h > c.MaxDimension) {
		w = c.MaxDimension
		h = c.MaxDimension
		if c.RequirePowerOfTwo && !isPowerOfTwo(w) {
			w = prevPowerOfTwo(w)
			h = w
		}
	}
	return w, h
}

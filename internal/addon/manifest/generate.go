package manifest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"modporter.ai/internal/addon/modinfo"
)

// FormatVersion written for every generated manifest.
const FormatVersion = 2

// MinEngineVersion is the oldest engine the generated packs declare support for.
var MinEngineVersion = [3]int{1, 16, 0}

// Generate builds the behavior-pack and resource-pack manifests for one mod
// description. All UUIDs are freshly generated per call, the two manifests
// reference each other exactly once via dependencies, and both are run
// through Validate before being returned. Nothing is written to disk here.
func Generate(mod modinfo.ModInfo) (behavior, resource Manifest, err error) {
	version := ParseVersion(mod.Version)
	caps := deriveCapabilities(mod)

	behaviorUUID := newUUID()
	resourceUUID := newUUID()

	behavior = Manifest{
		FormatVersion: FormatVersion,
		Header: Header{
			Name:             mod.Name + " Behaviors",
			Description:      mod.Description,
			UUID:             behaviorUUID,
			Version:          version,
			MinEngineVersion: MinEngineVersion,
		},
		Modules: []Module{
			{Type: ModuleData, UUID: newUUID(), Version: version},
		},
		Capabilities: caps,
		Dependencies: []Dependency{
			{UUID: resourceUUID, Version: version},
		},
	}
	if mod.HasScripting() || mod.HasCustomUI() {
		behavior.Modules = append(behavior.Modules, Module{
			Type:    ModuleScript,
			UUID:    newUUID(),
			Version: version,
			Entry:   ScriptEntryPoint,
		})
	}

	resource = Manifest{
		FormatVersion: FormatVersion,
		Header: Header{
			Name:             mod.Name + " Resources",
			Description:      mod.Description,
			UUID:             resourceUUID,
			Version:          version,
			MinEngineVersion: MinEngineVersion,
		},
		Modules: []Module{
			{Type: ModuleResources, UUID: newUUID(), Version: version},
		},
		Capabilities: caps,
		Dependencies: []Dependency{
			{UUID: behaviorUUID, Version: version},
		},
	}
	if mod.HasCustomUI() {
		resource.Modules = append(resource.Modules, Module{
			Type:    ModuleClientData,
			UUID:    newUUID(),
			Version: version,
		})
	}

	if serr := Validate(behavior); serr != nil {
		return Manifest{}, Manifest{}, fmt.Errorf("behavior manifest: %w", serr)
	}
	if serr := Validate(resource); serr != nil {
		return Manifest{}, Manifest{}, fmt.Errorf("resource manifest: %w", serr)
	}
	return behavior, resource, nil
}

func newUUID() string {
	return strings.ToLower(uuid.NewString())
}

// deriveCapabilities maps declared features onto capability tokens, keeping
// a stable order and dropping duplicates from the explicit experimental list.
func deriveCapabilities(mod modinfo.ModInfo) []string {
	var caps []string
	seen := map[string]bool{}
	add := func(c string) {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			return
		}
		seen[c] = true
		caps = append(caps, c)
	}
	if mod.HasCustomUI() {
		add(CapCustomUI)
	}
	if mod.HasScripting() {
		add(CapScriptEval)
	}
	if mod.HasChemistry() {
		add(CapChemistry)
	}
	for _, c := range mod.Experimental {
		add(strings.ToLower(c))
	}
	return caps
}

// ParseVersion turns a declared semantic version string into exactly three
// non-negative integers. Non-numeric suffixes on a component are dropped
// ("3-beta" parses as 3), missing components pad with 0, and a string with
// no usable leading component falls back to 1.0.0.
func ParseVersion(s string) [3]int {
	parts := strings.Split(strings.TrimSpace(s), ".")
	var out [3]int
	for i := 0; i < 3 && i < len(parts); i++ {
		n, ok := leadingInt(parts[i])
		if !ok {
			if i == 0 {
				return [3]int{1, 0, 0}
			}
			break
		}
		out[i] = n
	}
	return out
}

// leadingInt parses the leading decimal digits of a component, ignoring any
// trailing suffix like "-beta" or "rc1".
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

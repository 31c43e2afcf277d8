package manifest

import (
	"strings"
	"testing"

	"modporter.ai/internal/addon/modinfo"
)

func TestParseVersion(t *testing.T) {
	cases := []struct {
		in   string
		want [3]int
	}{
		{"1.2.3", [3]int{1, 2, 3}},
		{"1.2.3-beta", [3]int{1, 2, 3}},
		{"2.1", [3]int{2, 1, 0}},
		{"7", [3]int{7, 0, 0}},
		{"1.x.3", [3]int{1, 0, 0}},
		{"4.5rc1.9", [3]int{4, 5, 9}},
		{"garbage", [3]int{1, 0, 0}},
		{"", [3]int{1, 0, 0}},
		{"  3.0.1  ", [3]int{3, 0, 1}},
	}
	for _, c := range cases {
		if got := ParseVersion(c.in); got != c.want {
			t.Fatalf("ParseVersion(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestGenerate_ManifestsValidateAndCrossReference(t *testing.T) {
	mod := modinfo.ModInfo{
		Name:        "Copper Gear",
		Description: "Adds copper machinery",
		Version:     "1.4.2",
		Features:    []string{"copper block", "gear item"},
	}

	behavior, resource, err := Generate(mod)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if serr := Validate(behavior); serr != nil {
		t.Fatalf("behavior invalid: %v", serr)
	}
	if serr := Validate(resource); serr != nil {
		t.Fatalf("resource invalid: %v", serr)
	}

	if len(behavior.Dependencies) != 1 || behavior.Dependencies[0].UUID != resource.Header.UUID {
		t.Fatalf("behavior deps=%v want single ref to %s", behavior.Dependencies, resource.Header.UUID)
	}
	if len(resource.Dependencies) != 1 || resource.Dependencies[0].UUID != behavior.Header.UUID {
		t.Fatalf("resource deps=%v want single ref to %s", resource.Dependencies, behavior.Header.UUID)
	}

	want := [3]int{1, 4, 2}
	if behavior.Header.Version != want || resource.Header.Version != want {
		t.Fatalf("versions %v / %v want %v", behavior.Header.Version, resource.Header.Version, want)
	}
	if behavior.Dependencies[0].Version != want {
		t.Fatalf("dependency version=%v want %v", behavior.Dependencies[0].Version, want)
	}
}

func TestGenerate_UUIDsFreshAndUnique(t *testing.T) {
	mod := modinfo.ModInfo{Name: "M", Description: "d", Version: "1.0.0", Features: []string{"stone block"}}

	b1, r1, err := Generate(mod)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b2, r2, err := Generate(mod)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	seen := map[string]bool{}
	for _, m := range []Manifest{b1, r1} {
		for _, id := range collectUUIDs(m) {
			if seen[id] {
				t.Fatalf("uuid %s repeated within one build", id)
			}
			seen[id] = true
		}
	}
	if b1.Header.UUID == b2.Header.UUID || r1.Header.UUID == r2.Header.UUID {
		t.Fatalf("pack uuids reused across builds")
	}
}

func collectUUIDs(m Manifest) []string {
	ids := []string{m.Header.UUID}
	for _, mod := range m.Modules {
		ids = append(ids, mod.UUID)
	}
	return ids
}

func TestGenerate_ScriptAndClientDataModules(t *testing.T) {
	plain := modinfo.ModInfo{Name: "P", Description: "d", Version: "1.0.0", Features: []string{"copper block"}}
	b, r, err := Generate(plain)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if hasModule(b, ModuleScript) {
		t.Fatalf("unexpected script module without scripting features")
	}
	if hasModule(r, ModuleClientData) {
		t.Fatalf("unexpected client_data module without ui features")
	}

	scripted := modinfo.ModInfo{Name: "S", Description: "d", Version: "1.0.0", Features: []string{"custom crafting logic"}}
	b, r, err = Generate(scripted)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !hasModule(b, ModuleScript) {
		t.Fatalf("want script module for scripting features")
	}
	if hasModule(r, ModuleClientData) {
		t.Fatalf("client_data module requires a ui feature, not scripting")
	}
	for _, m := range b.Modules {
		if m.Type == ModuleScript && m.Entry != ScriptEntryPoint {
			t.Fatalf("script entry=%q want %q", m.Entry, ScriptEntryPoint)
		}
	}

	ui := modinfo.ModInfo{Name: "U", Description: "d", Version: "1.0.0", Features: []string{"config menu screen"}}
	b, r, err = Generate(ui)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !hasModule(b, ModuleScript) {
		t.Fatalf("want script module for ui features")
	}
	if !hasModule(r, ModuleClientData) {
		t.Fatalf("want client_data module for ui features")
	}
}

func hasModule(m Manifest, typ string) bool {
	for _, mod := range m.Modules {
		if mod.Type == typ {
			return true
		}
	}
	return false
}

func TestGenerate_Capabilities(t *testing.T) {
	mod := modinfo.ModInfo{
		Name:         "C",
		Description:  "d",
		Version:      "1.0.0",
		Features:     []string{"settings menu", "chemical reactions", "event scripting"},
		Experimental: []string{"holiday_creator_features", "experimental_custom_ui"},
	}
	b, r, err := Generate(mod)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	want := []string{CapCustomUI, CapScriptEval, CapChemistry, "holiday_creator_features"}
	for _, m := range []Manifest{b, r} {
		if len(m.Capabilities) != len(want) {
			t.Fatalf("capabilities=%v want %v", m.Capabilities, want)
		}
		for i, c := range want {
			if m.Capabilities[i] != c {
				t.Fatalf("capabilities[%d]=%q want %q", i, m.Capabilities[i], c)
			}
		}
	}
}

func TestGenerate_InvalidModInfoFailsValidation(t *testing.T) {
	mod := modinfo.ModInfo{Name: strings.Repeat("x", 300), Description: "d", Version: "1.0.0"}
	if _, _, err := Generate(mod); err == nil {
		t.Fatalf("want schema failure for oversized name")
	}
}

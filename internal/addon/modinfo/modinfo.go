package modinfo

import "strings"

// ModInfo is the mod description handed to the pipeline by the analysis
// stage. It is consumed once per build and never mutated.
type ModInfo struct {
	Name         string   `yaml:"name" json:"name"`
	Description  string   `yaml:"description" json:"description"`
	Version      string   `yaml:"version" json:"version"`
	Features     []string `yaml:"features" json:"features"`
	Experimental []string `yaml:"experimental,omitempty" json:"experimental,omitempty"`
}

var (
	uiKeywords        = []string{"ui", "hud", "interface", "menu", "screen"}
	scriptingKeywords = []string{"script", "logic", "command", "event"}
	chemistryKeywords = []string{"chemistry", "chemical", "reaction", "compound"}
)

func (m ModInfo) HasCustomUI() bool  { return m.hasAny(uiKeywords) }
func (m ModInfo) HasScripting() bool { return m.hasAny(scriptingKeywords) }
func (m ModInfo) HasChemistry() bool { return m.hasAny(chemistryKeywords) }

func (m ModInfo) hasAny(keywords []string) bool {
	for _, f := range m.Features {
		lf := strings.ToLower(f)
		for _, k := range keywords {
			if strings.Contains(lf, k) {
				return true
			}
		}
	}
	return false
}

// Slug converts the mod name into a filesystem/archive-safe pack name.
// Runs of non-alphanumeric characters collapse into single underscores.
func (m ModInfo) Slug() string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(m.Name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	s := strings.Trim(b.String(), "_")
	if s == "" {
		return "mod"
	}
	return s
}

package manifest

// Module types accepted by the add-on loader.
const (
	ModuleData       = "data"
	ModuleResources  = "resources"
	ModuleClientData = "client_data"
	ModuleScript     = "script"
)

// Capability tokens derived from declared features.
const (
	CapCustomUI   = "experimental_custom_ui"
	CapScriptEval = "script_eval"
	CapChemistry  = "chemistry"
)

// ScriptEntryPoint is the conventional entry for the script module of a
// behavior pack.
const ScriptEntryPoint = "scripts/main.js"

// Manifest is the top-level pack descriptor written to manifest.json.
// Field names and nesting are the wire format; versions are always
// three-element arrays of non-negative integers and UUIDs use lowercase
// hex with hyphens.
type Manifest struct {
	FormatVersion int          `json:"format_version"`
	Header        Header       `json:"header"`
	Modules       []Module     `json:"modules"`
	Capabilities  []string     `json:"capabilities,omitempty"`
	Dependencies  []Dependency `json:"dependencies,omitempty"`
}

type Header struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	UUID             string `json:"uuid"`
	Version          [3]int `json:"version"`
	MinEngineVersion [3]int `json:"min_engine_version"`
}

type Module struct {
	Type    string `json:"type"`
	UUID    string `json:"uuid"`
	Version [3]int `json:"version"`
	Entry   string `json:"entry,omitempty"`
}

type Dependency struct {
	UUID    string `json:"uuid"`
	Version [3]int `json:"version"`
}

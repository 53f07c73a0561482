package rules

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// rulesetFile is the YAML form of a ruleset override file.
type rulesetFile struct {
	Fields     map[string]Rule `yaml:"fields"`
	Optional   []string        `yaml:"optional"`
	Thresholds *Thresholds     `yaml:"thresholds"`
}

// Load reads a ruleset YAML file. Fields replace the built-in defaults
// wholesale when the file declares any; thresholds and optional keys fall
// back to the defaults when omitted.
func Load(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}
	rs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rules: %s: %w", path, err)
	}
	return rs, nil
}

// Parse decodes YAML ruleset content. Exposed separately so tests do not
// need files on disk.
func Parse(data []byte) (*Ruleset, error) {
	var f rulesetFile
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	rs := Defaults()
	if len(f.Fields) > 0 {
		rs.Fields = f.Fields
	}
	if f.Optional != nil {
		rs.Optional = make(map[string]bool, len(f.Optional))
		for _, key := range f.Optional {
			rs.Optional[key] = true
		}
	}
	if f.Thresholds != nil {
		rs.Thresholds = *f.Thresholds
	}

	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

// Package profile defines exam profiles that modulate LLM extraction
// prompt construction. Each profile provides a SystemPromptAddendum that
// is appended to the system prompt sent to the LLM.
package profile

import "fmt"

// Profile describes an extraction strategy for one examination type.
type Profile struct {
	Name                 string
	Description          string
	SystemPromptAddendum string
	// StrictUncertainty, when true, instructs the extractor to mark any
	// hedged phrasing as uncertain rather than guessing a polarity.
	StrictUncertainty bool
}

// builtins is the registry of built-in profiles keyed by name.
var builtins = map[string]Profile{
	"general-radiology": {
		Name:        "general-radiology",
		Description: "Default profile; extracts any measurement or anatomical assessment the report states.",
		SystemPromptAddendum: "Extract every biometric measurement and anatomical assessment the report " +
			"states explicitly. Do not infer findings the text does not support. When a sentence is " +
			"ambiguous, prefer omitting the field over guessing.",
		StrictUncertainty: false,
	},
	"fetal-anatomy": {
		Name:        "fetal-anatomy",
		Description: "Mid-trimester fetal anatomy survey; expects standard biometry and survey categories.",
		SystemPromptAddendum: "This is a mid-trimester fetal anatomy survey. Expect the standard biometry " +
			"fields BPD, HC, AC and FL in millimetres, and the survey categories brain, heart, spine, " +
			"face, organs, limbs, placenta, amniotic_fluid and umbilical_cord. Map descriptions of those " +
			"structures onto exactly those field keys. Treat \"no abnormality\" phrasing as a negated " +
			"finding, and \"possible\" or \"?\" phrasing as uncertain.",
		StrictUncertainty: true,
	},
}

// Load returns the named built-in profile or an error if the name is unknown.
func Load(name string) (Profile, error) {
	p, ok := builtins[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile: unknown profile %q (available: general-radiology, fetal-anatomy)", name)
	}
	return p, nil
}

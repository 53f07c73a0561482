package rules

// Default measurement tolerances follow the ranges used in routine
// mid-trimester biometry QA; they are configuration defaults, not clinical
// guidance, and can be overridden per deployment.

// normalSynonyms are labels that radiology reports use interchangeably for
// an unremarkable structure.
var normalSynonyms = []string{
	"normal", "unremarkable", "within normal limits", "no abnormality",
}

// Defaults returns the built-in ruleset: the four standard biometry fields
// and the anatomical survey categories, with risk thresholds of 1.0
// (medium) and 3.0 (high).
func Defaults() *Ruleset {
	return &Ruleset{
		Fields: map[string]Rule{
			// Biometry, tolerances in mm.
			"BPD": {Kind: KindNumeric, Tolerance: 2.0, Weight: 2.0},
			"HC":  {Kind: KindNumeric, Tolerance: 5.0, Weight: 1.5},
			"AC":  {Kind: KindNumeric, Tolerance: 5.0, Weight: 1.5},
			"FL":  {Kind: KindNumeric, Tolerance: 2.0, Weight: 2.0},
			// Gestational age in weeks.
			"gestational_age": {Kind: KindNumeric, Tolerance: 1.0, Weight: 1.0},

			// Anatomical survey.
			"brain": {Kind: KindCategorical, Weight: 2.0, Synonyms: [][]string{
				normalSynonyms,
				{"ventriculomegaly", "enlarged ventricles"},
			}},
			"heart": {Kind: KindCategorical, Weight: 2.0, Synonyms: [][]string{
				append([]string{"four-chamber normal", "four chamber normal", "four-chamber view normal"}, normalSynonyms...),
			}},
			"spine": {Kind: KindCategorical, Weight: 2.0, Synonyms: [][]string{
				append([]string{"intact"}, normalSynonyms...),
			}},
			"face": {Kind: KindCategorical, Weight: 1.0, Synonyms: [][]string{
				normalSynonyms,
			}},
			"organs": {Kind: KindCategorical, Weight: 1.5, Synonyms: [][]string{
				append([]string{"visualized"}, normalSynonyms...),
			}},
			"limbs": {Kind: KindCategorical, Weight: 1.0, Synonyms: [][]string{
				append([]string{"present", "all four present"}, normalSynonyms...),
			}},
			"placenta": {Kind: KindCategorical, Weight: 1.5, Synonyms: [][]string{
				append([]string{"anterior", "posterior", "fundal"}, normalSynonyms...),
				{"previa", "praevia", "low-lying"},
			}},
			"amniotic_fluid": {Kind: KindCategorical, Weight: 1.5, Synonyms: [][]string{
				append([]string{"adequate"}, normalSynonyms...),
				{"oligohydramnios", "reduced"},
				{"polyhydramnios", "increased"},
			}},
			"umbilical_cord": {Kind: KindCategorical, Weight: 1.0, Synonyms: [][]string{
				append([]string{"three-vessel", "three vessel", "3-vessel"}, normalSynonyms...),
			}},
		},
		// AI analyzer bookkeeping fields that are tolerated but never
		// clinically compared.
		Optional: map[string]bool{
			"image_quality":    true,
			"fetal_position":   true,
			"estimated_weight": true,
		},
		Thresholds: Thresholds{Medium: 1.0, High: 3.0},
	}
}

// Package textparse extracts a structured finding record from a free-text
// radiology report using lexical cues: measurement patterns, anatomical
// keywords, and negation/uncertainty markers. It is the rule-based
// counterpart to the LLM-backed extractor in internal/llm.
package textparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dshills/radverify/internal/schema"
)

// negationRe matches explicit absence markers. Word-boundary anchored so
// that "no" does not fire inside "normal" or "noted".
var negationRe = regexp.MustCompile(`\b(?:no|not|without|absent|negative for|no evidence of|fails to demonstrate|does not show)\b`)

// uncertaintyRe matches hedging language. A bare "?" is the conventional
// shorthand for a queried finding (e.g. "? spina bifida").
var uncertaintyRe = regexp.MustCompile(`\b(?:possible|possibly|probable|likely|suggests|suggestive of|may indicate|appears|seems|questionable|uncertain|cannot exclude)\b|\?`)

// biometryPatterns match biometric values like "BPD: 47.2 mm" or
// "biparietal diameter 4.7cm". Declared in canonical report order; the
// parsed record preserves it.
var biometryPatterns = []struct {
	key string
	re  *regexp.Regexp
}{
	{"BPD", regexp.MustCompile(`(?:\bbpd\b|biparietal diameter)[:\s]+(\d+(?:\.\d+)?)\s*(mm|cm)`)},
	{"HC", regexp.MustCompile(`(?:\bhc\b|head circumference)[:\s]+(\d+(?:\.\d+)?)\s*(mm|cm)`)},
	{"AC", regexp.MustCompile(`(?:\bac\b|abdominal circumference)[:\s]+(\d+(?:\.\d+)?)\s*(mm|cm)`)},
	{"FL", regexp.MustCompile(`(?:\bfl\b|femur length|femoral length)[:\s]+(\d+(?:\.\d+)?)\s*(mm|cm)`)},
}

// gestationalAgeRe matches "gestational age: 20 weeks" and "GA 20 weeks".
var gestationalAgeRe = regexp.MustCompile(`(?:gestational age|\bga\b)[:\s]+(\d+(?:\.\d+)?)\s*(weeks?|days?)`)

// structureKeywords maps anatomical field keys to the report vocabulary
// that mentions them. Declared in canonical survey order.
var structureKeywords = []struct {
	key      string
	keywords []string
}{
	{"brain", []string{"brain", "skull", "cranium", "ventricle", "ventricles", "cerebellum", "cavum septum pellucidum"}},
	{"heart", []string{"heart", "cardiac", "four-chamber", "four chamber", "atrium"}},
	{"spine", []string{"spine", "spinal", "vertebra", "vertebrae"}},
	{"face", []string{"face", "facial", "profile", "nasal bone", "lip", "lips"}},
	{"organs", []string{"stomach", "kidney", "kidneys", "bladder", "liver"}},
	{"limbs", []string{"arm", "arms", "leg", "legs", "hand", "hands", "foot", "feet", "limb", "limbs"}},
	{"placenta", []string{"placenta", "placental"}},
	{"amniotic_fluid", []string{"amniotic fluid", "liquor", "fluid volume"}},
	{"umbilical_cord", []string{"umbilical cord", "cord"}},
}

// descriptorLabels map assessment vocabulary in a matched sentence to the
// finding label stored in the record. Checked in order; first hit wins.
// Matched on word boundaries: "abnormal" must never read as "normal".
// Pathology terms precede bare presence terms so that "an anomaly is
// present" keeps its pathology label.
var descriptorLabels = []struct {
	term  string
	label string
}{
	{"within normal limits", "normal"},
	{"unremarkable", "normal"},
	{"normal", "normal"},
	{"anomaly", "abnormality"},
	{"abnormality", "abnormality"},
	{"abnormal", "abnormality"},
	{"defect", "abnormality"},
	{"intact", "intact"},
	{"visualized", "visualized"},
	{"adequate", "adequate"},
	{"present", "present"},
}

// ParseReport extracts the doctor's finding record from report text. Key
// order is fixed: biometry fields first (BPD, HC, AC, FL, gestational
// age), then anatomical categories in survey order, so the record is
// deterministic regardless of sentence order in the report.
func ParseReport(text string) (*schema.FindingRecord, error) {
	record := schema.NewFindingRecord()
	lower := strings.ToLower(text)

	for _, p := range biometryPatterns {
		m := p.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		magnitude, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue // the regex only admits digits; defensive against overflow
		}
		unit := schema.Unit(m[2])
		if err := record.Set(p.key, schema.Measurement{Magnitude: magnitude, Unit: unit}); err != nil {
			return nil, err
		}
	}

	if m := gestationalAgeRe.FindStringSubmatch(lower); m != nil {
		if magnitude, err := strconv.ParseFloat(m[1], 64); err == nil {
			unit := schema.UnitWeek
			if strings.HasPrefix(m[2], "day") {
				unit = schema.UnitDay
			}
			if err := record.Set("gestational_age", schema.Measurement{Magnitude: magnitude, Unit: unit}); err != nil {
				return nil, err
			}
		}
	}

	sentences := SplitSentences(lower)
	for _, s := range structureKeywords {
		relevant := relevantSentences(sentences, s.keywords)
		if len(relevant) == 0 {
			continue
		}
		finding := classifySentences(relevant)
		if err := record.Set(s.key, finding); err != nil {
			return nil, err
		}
	}

	return record, nil
}

// SplitSentences splits report text into sentences on '.', '!', ';' and
// newlines. '?' is deliberately not a delimiter: it is an uncertainty cue
// that must stay attached to its sentence.
func SplitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		switch r {
		case '!', ';', '\n':
			flushSentence(&sentences, &cur)
		case '.':
			// Keep decimal points inside measurements together.
			if i > 0 && i+1 < len(runes) && isDigit(runes[i-1]) && isDigit(runes[i+1]) {
				cur.WriteRune(r)
			} else {
				flushSentence(&sentences, &cur)
			}
		default:
			cur.WriteRune(r)
		}
	}
	flushSentence(&sentences, &cur)
	return sentences
}

func flushSentence(sentences *[]string, cur *strings.Builder) {
	s := strings.TrimSpace(cur.String())
	if s != "" {
		*sentences = append(*sentences, s)
	}
	cur.Reset()
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// relevantSentences returns the sentences mentioning any of keywords.
func relevantSentences(sentences []string, keywords []string) []string {
	var out []string
	for _, sentence := range sentences {
		for _, kw := range keywords {
			if containsWord(sentence, kw) {
				out = append(out, sentence)
				break
			}
		}
	}
	return out
}

// containsWord reports whether kw occurs in sentence on word boundaries.
// Multi-word keywords fall back to substring containment.
func containsWord(sentence, kw string) bool {
	idx := strings.Index(sentence, kw)
	for idx >= 0 {
		before := idx == 0 || !isLetter(rune(sentence[idx-1]))
		afterIdx := idx + len(kw)
		after := afterIdx >= len(sentence) || !isLetter(rune(sentence[afterIdx]))
		if before && after {
			return true
		}
		next := strings.Index(sentence[idx+1:], kw)
		if next < 0 {
			return false
		}
		idx = idx + 1 + next
	}
	return false
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// classifySentences derives one categorical finding from the sentences
// that mention a structure. Negation outranks uncertainty: "no definite
// abnormality" reads as a negation, not a hedge.
func classifySentences(sentences []string) schema.Categorical {
	negated := false
	uncertain := false
	label := ""
	for _, sentence := range sentences {
		if negationRe.MatchString(sentence) {
			negated = true
		}
		if uncertaintyRe.MatchString(sentence) {
			uncertain = true
		}
		if label == "" {
			for _, d := range descriptorLabels {
				if containsWord(sentence, d.term) {
					label = d.label
					break
				}
			}
		}
	}
	if label == "" {
		label = "noted"
	}

	polarity := schema.PolarityAffirmed
	switch {
	case negated:
		polarity = schema.PolarityNegated
	case uncertain:
		polarity = schema.PolarityUncertain
	}
	return schema.Categorical{Label: label, Polarity: polarity}
}

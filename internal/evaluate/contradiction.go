// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Contradiction detection is rule-based: numeric-assertion diffing plus
// negation keyword pairs. Detected fragments stay kept; contradiction is
// annotation, never a removal reason.

// numericAssertion matches statements like "X = 100", "latency is 42ms",
// "throughput was 3.5". Group 1 is the subject, group 2 the value.
var numericAssertion = regexp.MustCompile(
	`(?i)\b([a-z][a-z0-9_\-]*(?:\s+[a-z0-9_\-]+){0,3}?)\s*(?:=|is|was|are|were|reaches|equals)\s*(-?\d+(?:\.\d+)?)`)

// negationPairs lists keyword pairs whose joint presence across two
// fragments suggests opposing claims.
var negationPairs = [][2]string{
	{"cannot", "can"},
	{"is not", "is"},
	{"does not", "does"},
	{"false", "true"},
	{"rejects", "accepts"},
	{"never", "always"},
}

type assertion struct {
	subject  string
	value    float64
	sentence string
}

// detectContradictions finds pairs of kept fragments, from different
// sourceRefs, that assert incompatible claims about the same subject.
// Each detected pair yields exactly one record.
func detectContradictions(kept []types.ScoredFragment) []types.ContradictionRecord {
	if len(kept) < 2 {
		return nil
	}

	assertions := make([][]assertion, len(kept))
	for i, f := range kept {
		assertions[i] = extractAssertions(f.Text)
	}

	var records []types.ContradictionRecord
	seen := make(map[string]bool)

	for i := 0; i < len(kept); i++ {
		for j := i + 1; j < len(kept); j++ {
			a, b := kept[i], kept[j]
			if a.SourceRef == b.SourceRef {
				continue
			}
			pairKey := a.ID + "|" + b.ID
			if seen[pairKey] {
				continue
			}

			if rec, ok := numericConflict(assertions[i], assertions[j], a.SourceRef, b.SourceRef); ok {
				records = append(records, rec)
				seen[pairKey] = true
				continue
			}

			if rec, ok := negationConflict(a, b); ok {
				records = append(records, rec)
				seen[pairKey] = true
			}
		}
	}
	return records
}

// numericConflict reports a contradiction when both fragments assert a
// different value for the same subject. Severity grows with the relative
// difference between the values.
func numericConflict(as, bs []assertion, refA, refB string) (types.ContradictionRecord, bool) {
	for _, a := range as {
		for _, b := range bs {
			if a.subject != b.subject || a.value == b.value {
				continue
			}
			return types.ContradictionRecord{
				ClaimA:          a.sentence,
				ClaimASourceRef: refA,
				ClaimB:          b.sentence,
				ClaimBSourceRef: refB,
				Severity:        numericSeverity(a.value, b.value),
			}, true
		}
	}
	return types.ContradictionRecord{}, false
}

func numericSeverity(a, b float64) types.ContradictionSeverity {
	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale == 0 {
		return types.SeverityModerate
	}
	rel := math.Abs(a-b) / scale
	switch {
	case rel < 0.1:
		return types.SeverityMinor
	case rel < 0.5:
		return types.SeverityModerate
	default:
		return types.SeverityCritical
	}
}

// negationConflict reports a contradiction when the fragments carry
// opposing keywords from a known pair and share vocabulary beyond the
// keywords themselves (a weak subject check that suppresses unrelated
// pairings).
func negationConflict(a, b types.ScoredFragment) (types.ContradictionRecord, bool) {
	la, lb := strings.ToLower(a.Text), strings.ToLower(b.Text)

	for _, pair := range negationPairs {
		var hit bool
		switch {
		case containsWord(la, pair[0]) && containsWord(lb, pair[1]) && !containsWord(lb, pair[0]):
			hit = true
		case containsWord(lb, pair[0]) && containsWord(la, pair[1]) && !containsWord(la, pair[0]):
			hit = true
		}
		if !hit {
			continue
		}
		if jaccard(tokenSet(a.Text), tokenSet(b.Text)) < 0.15 {
			continue
		}
		return types.ContradictionRecord{
			ClaimA:          firstSentence(a.Text),
			ClaimASourceRef: a.SourceRef,
			ClaimB:          firstSentence(b.Text),
			ClaimBSourceRef: b.SourceRef,
			Severity:        types.SeverityModerate,
		}, true
	}
	return types.ContradictionRecord{}, false
}

// extractAssertions pulls (subject, value) pairs with their sentences.
func extractAssertions(text string) []assertion {
	var out []assertion
	for _, sentence := range splitSentences(text) {
		for _, m := range numericAssertion.FindAllStringSubmatch(sentence, -1) {
			value, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				continue
			}
			subject := normalizeSubject(m[1])
			if subject == "" {
				continue
			}
			out = append(out, assertion{
				subject:  subject,
				value:    value,
				sentence: strings.TrimSpace(sentence),
			})
		}
	}
	return out
}

// normalizeSubject lowercases a subject and strips leading articles and
// copulas picked up by the lazy match.
func normalizeSubject(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	for len(fields) > 0 {
		switch fields[0] {
		case "the", "a", "an", "its", "their", "our":
			fields = fields[1:]
		default:
			return strings.Join(fields, " ")
		}
	}
	return ""
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
}

func firstSentence(text string) string {
	for _, s := range splitSentences(text) {
		if strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return strings.TrimSpace(text)
}

// containsWord reports whether text contains phrase on word boundaries.
func containsWord(text, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

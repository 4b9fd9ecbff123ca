package integrity

import (
	"regexp"
	"strings"
)

const (
	// copySimilarity is the embedding similarity above which a
	// submission counts as a near copy of the exemplar.
	copySimilarity = 0.95

	// suspectSimilarity alone is enough for medium risk.
	suspectSimilarity = 0.9

	minWordCount = 15

	// Repetition: only sentences longer than this count, and only when
	// there are more than minSentences of them.
	minSentenceLength = 10
	minSentences      = 3
	distinctRatioMin  = 0.6

	// tooFastRatio flags submissions finished in under this fraction of
	// the expected minimum duration.
	tooFastRatio = 0.3
)

// placeholderPatterns match template markers a learner forgot to fill:
// bracket/brace markers, trailing ellipses, "e.g." openers, lorem ipsum,
// and runs of x characters.
var placeholderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[[^\]]*\]`),
	regexp.MustCompile(`\{\{[^}]*\}\}`),
	regexp.MustCompile(`\.\.\.\s*$`),
	regexp.MustCompile(`(?i)^\s*e\.g\.`),
	regexp.MustCompile(`(?i)lorem ipsum`),
	regexp.MustCompile(`(?i)\bx{3,}\b`),
}

// Detect evaluates every rule against the input and classifies the
// overall risk. Each rule contributes independently to the low-effort
// counter; the tier cascade at the end is order-sensitive.
func Detect(in Input) Verdict {
	v := Verdict{RiskLevel: RiskLow}

	v.IsExactCopy = exactCopy(in)
	if v.IsExactCopy {
		v.addFlag(FlagExactCopy)
	}

	words := strings.Fields(in.Submission)
	v.Signals.WordCount = len(words)
	if len(words) < minWordCount {
		v.addFlag(FlagTooShort)
	}

	count, ratio, repetitive := repetition(in.Submission)
	v.Signals.SentenceCount = count
	v.Signals.DistinctSentenceRatio = ratio
	if repetitive {
		v.addFlag(FlagRepetitive)
	}

	if in.Duration > 0 && in.ExpectedMinDuration > 0 &&
		float64(in.Duration) < tooFastRatio*float64(in.ExpectedMinDuration) {
		v.addFlag(FlagTooFast)
	}

	if hasPlaceholders(in.Submission) {
		v.addFlag(FlagPlaceholders)
	}

	// Tier cascade: first match wins.
	switch {
	case v.IsExactCopy:
		v.RiskLevel = RiskHigh
	case v.Signals.LowEffortIndicators >= 2 || in.EmbeddingSimilarity > suspectSimilarity:
		v.RiskLevel = RiskMedium
	case v.Signals.LowEffortIndicators >= 1:
		v.RiskLevel = RiskLow
	default:
		v.RiskLevel = RiskLow
		v.IsLikelyOriginal = true
	}

	return v
}

func (v *Verdict) addFlag(flag string) {
	v.Flags = append(v.Flags, flag)
	v.Signals.LowEffortIndicators++
}

// exactCopy reports a normalized textual match to the exemplar or a
// near-copy embedding similarity.
func exactCopy(in Input) bool {
	if in.EmbeddingSimilarity > copySimilarity {
		return true
	}
	if in.Exemplar == "" {
		return false
	}
	return normalizeText(in.Submission) == normalizeText(in.Exemplar)
}

// normalizeText lowercases and collapses all whitespace runs.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// repetition splits the submission on sentence terminators, keeps
// sentences longer than minSentenceLength, and reports low distinct
// ratio when enough sentences exist to judge.
func repetition(text string) (count int, ratio float64, repetitive bool) {
	var sentences []string
	for _, s := range sentenceSplit.Split(text, -1) {
		s = strings.TrimSpace(s)
		if len(s) > minSentenceLength {
			sentences = append(sentences, s)
		}
	}
	count = len(sentences)
	if count == 0 {
		return 0, 1, false
	}

	distinct := make(map[string]struct{}, count)
	for _, s := range sentences {
		distinct[normalizeText(s)] = struct{}{}
	}
	ratio = float64(len(distinct)) / float64(count)

	return count, ratio, count > minSentences && ratio < distinctRatioMin
}

func hasPlaceholders(text string) bool {
	for _, re := range placeholderPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

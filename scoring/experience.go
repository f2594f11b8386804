package scoring

import (
	"regexp"
	"strconv"
	"strings"
)

// Seniority fallbacks, in years.
const (
	seniorYears = 5
	midYears    = 3
	juniorYears = 1
)

var (
	rangeYearsRe = regexp.MustCompile(`(\d+)\s*[-~到至]\s*(\d+)\s*年`)
	yearsPlusRe  = regexp.MustCompile(`(\d+)\s*年以上`)
	yearsRe      = regexp.MustCompile(`(\d+)\s*年`)
	plusRe       = regexp.MustCompile(`(\d+)\s*以上`)
	firstIntRe   = regexp.MustCompile(`\d+`)

	// patterns recognised in project requirement text
	requiredPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+)\s*年以上`),
		regexp.MustCompile(`(\d+)\s*\+\s*年`),
		regexp.MustCompile(`(\d+)\s*\+\s*years?`),
		regexp.MustCompile(`minimum\s*(\d+)\s*years?`),
		regexp.MustCompile(`至少\s*(\d+)\s*年`),
	}
)

// ExperienceYears parses years of experience from free text. Rules are tried
// in order and the first match wins:
//
//	"3-5年"    -> 5 (upper bound)
//	"2年以上"  -> 2
//	"5年"      -> 5
//	"3以上"    -> 3
//	seniority  -> senior 5, mid 3, junior 1
//	otherwise the first embedded integer, or 0
func ExperienceYears(text string) int {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return 0
	}

	if m := rangeYearsRe.FindStringSubmatch(text); m != nil {
		return atoi(m[2])
	}
	for _, re := range []*regexp.Regexp{yearsPlusRe, yearsRe, plusRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			return atoi(m[1])
		}
	}
	if years, ok := seniority(text); ok {
		return years
	}
	if m := firstIntRe.FindString(text); m != "" {
		return atoi(m)
	}
	return 0
}

// RequiredExperienceYears extracts the minimum years a project asks for.
// Returns 0 when the text states no requirement.
func RequiredExperienceYears(text string) int {
	text = strings.ToLower(text)
	for _, re := range requiredPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return atoi(m[1])
		}
	}
	if years, ok := seniority(text); ok {
		return years
	}
	return 0
}

func seniority(text string) (int, bool) {
	switch {
	case containsAny(text, "senior", "高级", "资深"):
		return seniorYears, true
	case containsAny(text, "junior", "初级", "新人"):
		return juniorYears, true
	case containsAny(text, "mid", "中级"):
		return midYears, true
	}
	return 0, false
}

func containsAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

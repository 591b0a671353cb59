package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jonathan/pitchprep/internal/types"
)

// Factor constants. Each factor is scored on 0..types.MaxFactorScore.
const (
	neutralScore = 10

	locationRegionScore   = 15
	locationMismatchScore = 5

	workAuthSponsoredScore   = 18
	workAuthNoSponsorScore   = 2
	workAuthSilentScore      = 8
	workAuthStudentScore     = 15
	workAuthUnclearScore     = 12
	majorMissingScore        = 5
	majorRelatedScore        = 12
	majorUnrelatedScore      = 6
	jobTypeNotHiringScore    = 4
	jobTypeMismatchScore     = 6
	jobTypeHiringAnyScore    = 15
	skillsMissingScore       = 2
	resumeMissingScore       = 5
	resumeNoEmployerKWScore  = 12
	resumeBaseScore          = 8
	resumeShortBaseScore     = 6
	resumeShortChars         = 300
	resumeKeywordDenominator = 30
)

// ResumeMissingReason is the reason reported when a profile has no resume text.
const ResumeMissingReason = "no resume provided"

func factor(score int, reason string) types.FactorScore {
	if score < 0 {
		score = 0
	}
	if score > types.MaxFactorScore {
		score = types.MaxFactorScore
	}
	return types.FactorScore{Score: score, Reason: reason}
}

func scaled(max int, num, den float64) int {
	if den <= 0 {
		return 0
	}
	r := num / den
	if r > 1 {
		r = 1
	}
	return int(math.Round(float64(max) * r))
}

// --- location ---

func scoreLocation(profileLoc string, emp types.EmployerContext) types.FactorScore {
	empLoc := strings.TrimSpace(emp.Location)
	remote := mentionsRemote(emp.RemotePolicy) || mentionsRemote(empLoc)

	switch {
	case remote:
		return factor(types.MaxFactorScore, "employer offers remote work")
	case profileLoc == "" && empLoc == "":
		return factor(neutralScore, "no location signal from candidate or employer")
	case profileLoc == "":
		return factor(neutralScore, fmt.Sprintf("no location on profile; employer is based in %s", empLoc))
	case empLoc == "":
		return factor(neutralScore, "employer location is unknown")
	}

	ps, es := locationSegments(profileLoc), locationSegments(empLoc)
	if strings.Join(ps, ",") == strings.Join(es, ",") || sameMetro(ps, es) {
		return factor(types.MaxFactorScore, fmt.Sprintf("same metro area as employer (%s)", empLoc))
	}
	if shared := sharedSegments(ps, es); len(shared) > 0 {
		return factor(locationRegionScore, fmt.Sprintf("same region as employer (%s)", strings.Join(shared, ", ")))
	}
	return factor(locationMismatchScore, fmt.Sprintf("located in %s while employer is in %s", profileLoc, empLoc))
}

// sameMetro compares the city segment, and the region segment too when both
// sides name one, so "Springfield, IL" and "Springfield, MA" differ.
func sameMetro(ps, es []string) bool {
	if len(ps) == 0 || len(es) == 0 || ps[0] != es[0] {
		return false
	}
	if len(ps) >= 2 && len(es) >= 2 {
		return ps[1] == es[1]
	}
	return true
}

func mentionsRemote(s string) bool {
	t := tokenize(s)
	for _, w := range t {
		if w == "remote" || w == "remote-first" || w == "remote-friendly" {
			return true
		}
	}
	return false
}

// locationSegments splits "Austin, TX, USA" into normalized parts.
func locationSegments(loc string) []string {
	parts := strings.FieldsFunc(strings.ToLower(loc), func(r rune) bool {
		return r == ',' || r == '/' || r == ';' || r == '|'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sharedSegments(a, b []string) []string {
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	seen := make(map[string]bool)
	var out []string
	for _, s := range b {
		if set[s] && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// --- work authorization ---

var authorizedPhrases = []string{
	"citizen", "citizenship", "permanent resident", "green card", "authorized to work",
	"work authorization without", "us person",
}

var sponsorshipTerms = []string{
	"h-1b", "visa", "sponsorship", "sponsor", "f-1", "j-1", "tn", "e-3", "o-1", "stem opt",
}

var studentAuthTerms = []string{"opt", "cpt", "co-op"}

var negations = map[string]bool{
	"no": true, "not": true, "without": true, "never": true, "non": true,
	"dont": true, "don": true, "doesn": true, "won": true, "isn": true,
	"aren": true, "cannot": true, "nor": true,
}

// negationWindow is how many tokens before a phrase are checked for a negation.
const negationWindow = 3

func scoreWorkAuthorization(workAuth string, emp types.EmployerContext, hiring hiringSignal) types.FactorScore {
	if workAuth == "" {
		return factor(neutralScore, "work authorization not provided")
	}
	tokens := tokenize(workAuth)

	needsSponsor := matchesAny(tokens, sponsorshipTerms)
	student := matchesAny(tokens, studentAuthTerms)

	if !needsSponsor && !student && isAuthorized(tokens) {
		return factor(types.MaxFactorScore, "authorized to work without sponsorship")
	}
	if student && hiring.types["intern"] {
		return factor(workAuthStudentScore, "student work authorization (OPT/CPT) fits internship hiring")
	}
	if !needsSponsor && !student {
		return factor(workAuthUnclearScore, "work authorization status could not be classified")
	}

	switch {
	case emp.SponsorsVisas == nil:
		return factor(workAuthSilentScore, "needs visa sponsorship and employer sponsorship policy is unknown")
	case *emp.SponsorsVisas:
		return factor(workAuthSponsoredScore, "needs visa sponsorship and employer sponsors visas")
	default:
		return factor(workAuthNoSponsorScore, "needs visa sponsorship but employer does not sponsor")
	}
}

// isAuthorized reports an affirmative authorization phrase, or a negated
// sponsorship need such as "no sponsorship needed".
func isAuthorized(tokens []string) bool {
	if matchesAny(tokens, authorizedPhrases) {
		return true
	}
	for _, p := range []string{"sponsorship", "sponsor"} {
		phrase := tokenize(p)
		for _, i := range phraseIndexes(tokens, phrase) {
			if negatedAt(tokens, i) {
				return true
			}
		}
	}
	return false
}

// matchesAny reports whether any phrase occurs in tokens without a negation
// in the preceding window.
func matchesAny(tokens []string, phrases []string) bool {
	for _, p := range phrases {
		for _, i := range phraseIndexes(tokens, tokenize(p)) {
			if !negatedAt(tokens, i) {
				return true
			}
		}
	}
	return false
}

// negatedAt reports a negation within negationWindow tokens before index i.
// Tokens such as "non-us" negate what follows them.
func negatedAt(tokens []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-negationWindow; j-- {
		if negations[tokens[j]] || strings.HasPrefix(tokens[j], "non-") {
			return true
		}
	}
	return false
}

// --- major ---

var genericMajorWords = map[string]bool{
	"science": true, "sciences": true, "studies": true, "engineering": true, "arts": true,
	"bachelor": true, "bachelors": true, "master": true, "masters": true, "degree": true,
	"major": true, "minor": true, "applied": true, "general": true, "bs": true, "ba": true, "ms": true,
}

// fieldFamilies groups majors and employer terms into related disciplines.
var fieldFamilies = map[string][]string{
	"business":       {"business", "finance", "accounting", "marketing", "economics", "management", "sales", "consulting", "mba"},
	"communications": {"communications", "communication", "journalism", "english", "writing", "media", "advertising"},
	"computing":      {"computer", "software", "informatics", "information", "computing", "cs", "programming", "developer", "cybersecurity", "it"},
	"design":         {"design", "ux", "ui", "graphic", "art", "animation", "architecture"},
	"engineering":    {"electrical", "mechanical", "civil", "hardware", "manufacturing", "aerospace", "chemical", "industrial", "engineer", "robotics"},
	"health":         {"biology", "chemistry", "health", "nursing", "medical", "biomedical", "pharmacy", "clinical", "neuroscience"},
	"quantitative":   {"mathematics", "math", "statistics", "data", "analytics", "quantitative", "actuarial", "physics"},
}

func families(kw map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for name, terms := range fieldFamilies {
		for _, t := range terms {
			if kw[t] {
				out[name] = true
				break
			}
		}
	}
	return out
}

func scoreMajor(major string, empKW map[string]bool) types.FactorScore {
	if major == "" {
		return factor(majorMissingScore, "no major on profile")
	}
	if len(empKW) == 0 {
		return factor(neutralScore, "no employer signal to compare major against")
	}

	majorKW := keywords(major)
	specific := make(map[string]bool, len(majorKW))
	for k := range majorKW {
		if !genericMajorWords[k] {
			specific[k] = true
		}
	}
	if len(specific) == 0 {
		specific = majorKW
	}
	if len(specific) == 0 {
		return factor(neutralScore, "major could not be compared")
	}

	if overlap := intersect(specific, empKW); len(overlap) > 0 {
		score := neutralScore + scaled(10, float64(len(overlap)), float64(len(specific)))
		return factor(score, fmt.Sprintf("major overlaps employer focus on: %s", strings.Join(overlap, ", ")))
	}
	if shared := intersect(families(majorKW), families(empKW)); len(shared) > 0 {
		return factor(majorRelatedScore, fmt.Sprintf("major is related to employer's field (%s)", strings.Join(shared, ", ")))
	}
	return factor(majorUnrelatedScore, "no overlap between major and employer focus")
}

// --- job type ---

type hiringSignal struct {
	hiringNow *bool
	types     map[string]bool // "intern", "full-time"
}

func (h hiringSignal) typeList() []string {
	return sortedKeys(h.types)
}

func inferHiring(emp types.EmployerContext, empTokens []string) hiringSignal {
	h := hiringSignal{hiringNow: emp.HiringNow, types: make(map[string]bool)}
	explicit := false
	for _, t := range emp.HiringTypes {
		if kind := classifyJobType(tokenize(t)); kind != "" {
			h.types[kind] = true
			explicit = true
		}
	}
	if explicit {
		return h
	}
	if hasPhrase(empTokens, "intern") || hasPhrase(empTokens, "co-op") {
		h.types["intern"] = true
	}
	if hasPhrase(empTokens, "full-time") || hasPhrase(empTokens, "full time") ||
		hasPhrase(empTokens, "new grad") || hasPhrase(empTokens, "new graduate") || hasPhrase(empTokens, "entry level") {
		h.types["full-time"] = true
	}
	return h
}

func classifyJobType(tokens []string) string {
	switch {
	case hasPhrase(tokens, "intern"), hasPhrase(tokens, "co-op"):
		return "intern"
	case hasPhrase(tokens, "full-time"), hasPhrase(tokens, "full time"), hasPhrase(tokens, "new grad"):
		return "full-time"
	}
	return ""
}

func scoreJobType(pref types.JobTypePreference, h hiringSignal) types.FactorScore {
	if h.hiringNow != nil && !*h.hiringNow {
		return factor(jobTypeNotHiringScore, "employer is not currently hiring")
	}
	hiring := h.hiringNow != nil && *h.hiringNow
	known := len(h.types) > 0

	if pref == types.JobTypeAny || pref == "" {
		if hiring || known {
			return factor(types.MaxFactorScore, "open to any position type and employer is hiring")
		}
		return factor(jobTypeHiringAnyScore, "open to any position type; employer hiring status unknown")
	}

	want := "full-time"
	if pref == types.JobTypeInternship {
		want = "intern"
	}
	label := map[string]string{"intern": "internship", "full-time": "full-time"}

	if known {
		if h.types[want] {
			return factor(types.MaxFactorScore, fmt.Sprintf("employer is hiring for %s positions", label[want]))
		}
		offered := make([]string, 0, len(h.types))
		for _, t := range h.typeList() {
			offered = append(offered, label[t])
		}
		return factor(jobTypeMismatchScore, fmt.Sprintf("looking for %s but employer hires %s", label[want], strings.Join(offered, ", ")))
	}
	if hiring {
		return factor(jobTypeHiringAnyScore, "employer is hiring but position types are unspecified")
	}
	return factor(neutralScore, "employer hiring status unknown")
}

// --- skills ---

func scoreSkills(skills []string, empTokens []string, empKW map[string]bool) types.FactorScore {
	if len(skills) == 0 {
		return factor(skillsMissingScore, "no skills listed on profile")
	}
	if len(empKW) == 0 {
		return factor(neutralScore, "no employer keywords to compare skills against")
	}

	var matched []string
	for _, s := range skills {
		if containsPhrase(empTokens, tokenize(s)) {
			matched = append(matched, s)
		}
	}
	sort.Strings(matched)

	score := scaled(types.MaxFactorScore, float64(len(matched)), float64(len(skills)))
	if len(matched) == 0 {
		return factor(score, fmt.Sprintf("none of %d skills appear in employer context", len(skills)))
	}
	return factor(score, fmt.Sprintf("matched %d of %d skills: %s", len(matched), len(skills), listTerms(matched, 8)))
}

// --- resume ---

func scoreResume(resume string, empKW map[string]bool) types.FactorScore {
	if resume == "" {
		return factor(resumeMissingScore, ResumeMissingReason)
	}
	if len(empKW) == 0 {
		return factor(resumeNoEmployerKWScore, "resume provided but no employer keywords to compare")
	}

	overlap := intersect(keywords(resume), empKW)
	den := len(empKW)
	if den > resumeKeywordDenominator {
		den = resumeKeywordDenominator
	}
	base := resumeBaseScore
	if len([]rune(resume)) < resumeShortChars {
		base = resumeShortBaseScore
	}
	score := base + scaled(types.MaxFactorScore-resumeBaseScore, float64(len(overlap)), float64(den))
	if len(overlap) == 0 {
		return factor(score, "resume shares no keywords with employer context")
	}
	return factor(score, fmt.Sprintf("resume shares %d employer keywords: %s", len(overlap), listTerms(overlap, 5)))
}

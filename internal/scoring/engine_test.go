package scoring

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/pitchprep/internal/types"
)

func TestScore_CitizenFullTimeHiring(t *testing.T) {
	profile := types.UserProfile{
		Name:              "Ada",
		Major:             "Computer Science",
		WorkAuthorization: "US Citizen",
		JobTypePreference: types.JobTypeFullTime,
	}
	emp := types.EmployerContext{
		CompanyName: "Acme",
		HiringNow:   types.BoolPtr(true),
		HiringTypes: []string{"full-time"},
	}

	b := Score(profile, emp, "")

	assert.Equal(t, 20, b.WorkAuthorization.Score)
	assert.Equal(t, 20, b.JobType.Score)
}

func TestScore_EmptyResumeUsesFloor(t *testing.T) {
	emp := types.EmployerContext{
		CompanyName: "Acme",
		AboutText:   "Acme builds distributed databases in Go and Rust.",
		RecentNews:  []string{"Acme raised a Series C"},
	}
	profiles := []types.UserProfile{
		{Name: "Ada", Skills: []string{"Go"}},
		{Name: "Ada", Skills: []string{"Go"}, Major: "CS", Location: "Remote", WorkAuthorization: "citizen"},
		{Name: "Ada", ResumeText: "   "},
	}
	for _, p := range profiles {
		b := Score(p, emp, "Backend engineer, Go")
		assert.Equal(t, types.FactorScore{Score: 5, Reason: ResumeMissingReason}, b.Resume)
		assert.Equal(t, "no resume provided", b.Resume.Reason)
	}
}

func TestScore_ClampsToHundred(t *testing.T) {
	profile := types.UserProfile{
		Name:              "Ada",
		Major:             "Computer Science",
		WorkAuthorization: "Permanent resident",
		JobTypePreference: types.JobTypeFullTime,
		Skills:            []string{"Go"},
		ResumeText:        strings.Repeat("computer go engineers full-time ", 12),
	}
	emp := types.EmployerContext{
		CompanyName:  "Acme",
		RemotePolicy: "Remote",
		HiringNow:    types.BoolPtr(true),
		HiringTypes:  []string{"full-time"},
	}

	b := Score(profile, emp, "Full-time computer go engineers")

	for _, f := range b.Factors() {
		assert.Equal(t, 20, f.Score, f.Label)
	}
	assert.Equal(t, 100, b.MatchScore())
}

func TestScoreLocation(t *testing.T) {
	tests := []struct {
		name    string
		profile string
		emp     types.EmployerContext
		want    int
	}{
		{"remote employer", "Boston, MA", types.EmployerContext{RemotePolicy: "Remote-friendly"}, 20},
		{"same metro", "Austin, TX", types.EmployerContext{Location: "austin, tx, usa"}, 20},
		{"same region", "Dallas, TX", types.EmployerContext{Location: "Austin, TX"}, 15},
		{"mismatch", "Boston, MA", types.EmployerContext{Location: "Austin, TX"}, 5},
		{"same city name, different state", "Springfield, IL", types.EmployerContext{Location: "Springfield, MA"}, 15},
		{"city only", "Austin", types.EmployerContext{Location: "Austin, TX"}, 20},
		{"no signal", "", types.EmployerContext{}, 10},
		{"employer unknown", "Austin", types.EmployerContext{}, 10},
		{"profile unknown", "", types.EmployerContext{Location: "Austin, TX"}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreLocation(tt.profile, tt.emp)
			assert.Equal(t, tt.want, got.Score)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestScoreWorkAuthorization(t *testing.T) {
	intern := hiringSignal{types: map[string]bool{"intern": true}}
	fullTime := hiringSignal{types: map[string]bool{"full-time": true}}

	tests := []struct {
		name     string
		auth     string
		sponsors *bool
		hiring   hiringSignal
		want     int
	}{
		{"empty", "", nil, fullTime, 10},
		{"green card", "Green card holder", nil, fullTime, 20},
		{"no sponsorship needed", "No sponsorship needed", types.BoolPtr(false), fullTime, 20},
		{"does not require", "Does not require sponsorship", nil, fullTime, 20},
		{"needs sponsor, employer sponsors", "Requires H-1B sponsorship", types.BoolPtr(true), fullTime, 18},
		{"needs sponsor, employer does not", "Requires H-1B sponsorship", types.BoolPtr(false), fullTime, 2},
		{"needs sponsor, employer silent", "Requires H-1B sponsorship", nil, fullTime, 8},
		{"student with internship", "F-1 OPT", nil, intern, 15},
		{"student without internship", "F-1 OPT", nil, fullTime, 8},
		{"unclear", "Prefer not to say", nil, fullTime, 12},
		{"citizen, no visa required", "US citizen, no visa required", nil, fullTime, 20},
		{"not a citizen, needs sponsor", "Not a US citizen; requires H-1B sponsorship", nil, fullTime, 8},
		{"not authorized, needs sponsor", "I am not authorized to work in the US and will need visa sponsorship", nil, fullTime, 8},
		{"non-us citizen, needs sponsor", "Non-US citizen, need sponsorship", nil, fullTime, 8},
		{"non-us citizen only", "Non-US citizen", nil, fullTime, 12},
		{"not authorized only", "Not authorized to work in the US", nil, fullTime, 12},
		{"mixed statement, employer sponsors", "Citizen of India, requires visa sponsorship", types.BoolPtr(true), fullTime, 18},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreWorkAuthorization(tt.auth, types.EmployerContext{SponsorsVisas: tt.sponsors}, tt.hiring)
			assert.Equal(t, tt.want, got.Score)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestScoreWorkAuthorization_SilentEmployerExplainsWhy(t *testing.T) {
	for _, auth := range []string{
		"Will need visa sponsorship",
		"Not a US citizen; requires H-1B sponsorship",
		"Non-US citizen, need sponsorship",
	} {
		got := scoreWorkAuthorization(auth, types.EmployerContext{}, hiringSignal{})
		assert.Less(t, got.Score, 20, auth)
		assert.Contains(t, got.Reason, "unknown", auth)
		assert.NotContains(t, got.Reason, "without sponsorship", auth)
	}
}

func TestScoreMajor(t *testing.T) {
	tests := []struct {
		name       string
		major      string
		emp        string
		want       int
		wantReason string
	}{
		{"no major", "", "software", 5, "no major on profile"},
		{"no employer signal", "Computer Science", "", 10, ""},
		{"direct overlap", "Computer Science", "Computer Science Electrical Engineering", 20, "major overlaps employer focus on: computer"},
		{"related family", "Statistics", "We hire data scientists", 12, "major is related to employer's field (quantitative)"},
		{"unrelated", "Economics", "We build software for developers", 6, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreMajor(tt.major, keywords(tt.emp))
			assert.Equal(t, tt.want, got.Score)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, got.Reason)
			}
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestScoreJobType(t *testing.T) {
	tests := []struct {
		name string
		pref types.JobTypePreference
		emp  types.EmployerContext
		jd   string
		want int
	}{
		{"not hiring", types.JobTypeFullTime, types.EmployerContext{HiringNow: types.BoolPtr(false)}, "", 4},
		{"any while hiring", types.JobTypeAny, types.EmployerContext{HiringNow: types.BoolPtr(true)}, "", 20},
		{"any unknown", types.JobTypeAny, types.EmployerContext{}, "", 15},
		{"internship vs full-time", types.JobTypeInternship, types.EmployerContext{HiringTypes: []string{"full-time"}}, "", 6},
		{"internship inferred", types.JobTypeInternship, types.EmployerContext{}, "Summer Internship program", 20},
		{"full time phrase", types.JobTypeFullTime, types.EmployerContext{}, "Full time software roles", 20},
		{"hiring unspecified", types.JobTypeFullTime, types.EmployerContext{HiringNow: types.BoolPtr(true)}, "", 15},
		{"nothing known", types.JobTypeFullTime, types.EmployerContext{}, "", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := inferHiring(tt.emp, tokenize(tt.jd))
			got := scoreJobType(tt.pref, h)
			assert.Equal(t, tt.want, got.Score)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestScoreSkills(t *testing.T) {
	jd := "Backend engineer using Golang and k8s; machine learning a plus"
	tokens := tokenize(jd)

	got := scoreSkills([]string{"Go", "Kubernetes", "Rust", "Machine Learning"}, tokens, keywords(jd))
	assert.Equal(t, 15, got.Score)
	assert.Equal(t, "matched 3 of 4 skills: Go, Kubernetes, Machine Learning", got.Reason)

	got = scoreSkills(nil, tokens, keywords(jd))
	assert.Equal(t, 2, got.Score)

	got = scoreSkills([]string{"Go"}, nil, nil)
	assert.Equal(t, 10, got.Score)

	got = scoreSkills([]string{"Haskell"}, tokens, keywords(jd))
	assert.Equal(t, 0, got.Score)
	assert.NotEmpty(t, got.Reason)
}

func TestScoreResume(t *testing.T) {
	got := scoreResume("", keywords("go developer"))
	assert.Equal(t, 5, got.Score)

	got = scoreResume("Go developer", nil)
	assert.Equal(t, 12, got.Score)

	got = scoreResume("Go developer", keywords("Go developer"))
	assert.Equal(t, 18, got.Score)
	assert.Equal(t, "resume shares 2 employer keywords: developer, go", got.Reason)

	long := strings.Repeat("pottery ceramics glazing kiln ", 12)
	got = scoreResume(long, keywords("Go developer"))
	assert.Equal(t, 8, got.Score)
	assert.Equal(t, "resume shares no keywords with employer context", got.Reason)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"c++", "c#", "node.js", "go", "h-1b", "kubernetes"},
		tokenize("C++, C#, Node.js. Golang; H-1B k8s"))
	assert.True(t, containsPhrase(tokenize("we use machine learning daily"), tokenize("Machine Learning")))
	assert.False(t, containsPhrase(tokenize("machine vision and learning"), tokenize("machine learning")))
}

var vocab = []string{
	"go", "python", "rust", "kubernetes", "data", "computer", "science", "finance",
	"remote", "austin", "tx", "intern", "full-time", "citizen", "h-1b", "opt",
	"sponsorship", "design", "marketing", "statistics", "cloud", "security", "",
}

func randomText(r *rand.Rand, n int) string {
	words := make([]string, r.Intn(n+1))
	for i := range words {
		words[i] = vocab[r.Intn(len(vocab))]
	}
	return strings.Join(words, " ")
}

func randomBool(r *rand.Rand) *bool {
	switch r.Intn(3) {
	case 0:
		return nil
	case 1:
		return types.BoolPtr(true)
	default:
		return types.BoolPtr(false)
	}
}

func TestScore_BoundsAndDeterminism(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	prefs := []types.JobTypePreference{types.JobTypeAny, types.JobTypeFullTime, types.JobTypeInternship, ""}

	for i := 0; i < 500; i++ {
		profile := types.UserProfile{
			Name:              "Candidate",
			Major:             randomText(r, 3),
			Location:          randomText(r, 2),
			WorkAuthorization: randomText(r, 3),
			JobTypePreference: prefs[r.Intn(len(prefs))],
			Skills:            strings.Fields(randomText(r, 6)),
			ResumeText:        randomText(r, 120),
		}
		emp := types.EmployerContext{
			CompanyName:   "Co",
			AboutText:     randomText(r, 40),
			RecentNews:    strings.Fields(randomText(r, 3)),
			CultureNotes:  randomText(r, 10),
			Location:      randomText(r, 2),
			RemotePolicy:  randomText(r, 1),
			HiringNow:     randomBool(r),
			SponsorsVisas: randomBool(r),
			HiringTypes:   strings.Fields(randomText(r, 2)),
		}
		jd := randomText(r, 30)

		first := Score(profile, emp, jd)
		second := Score(profile, emp, jd)
		require.Equal(t, first, second, "iteration %d", i)

		sum := 0
		for _, f := range first.Factors() {
			require.GreaterOrEqual(t, f.Score, 0, f.Label)
			require.LessOrEqual(t, f.Score, 20, f.Label)
			require.NotEmpty(t, f.Reason, f.Label)
			sum += f.Score
		}
		if sum > 100 {
			sum = 100
		}
		require.Equal(t, sum, first.MatchScore())
		require.GreaterOrEqual(t, first.MatchScore(), 0)
		require.LessOrEqual(t, first.MatchScore(), 100)
	}
}

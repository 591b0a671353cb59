// Package pitch composes career fair pitch cards from a profile and employer context
// through one structured generation call.
package pitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/pitchprep/internal/llm"
	"github.com/jonathan/pitchprep/internal/logger"
	"github.com/jonathan/pitchprep/internal/prompts"
	"github.com/jonathan/pitchprep/internal/schemas"
	"github.com/jonathan/pitchprep/internal/types"
	schemafiles "github.com/jonathan/pitchprep/schemas"
)

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 45 * time.Second

// maxResumeRunes caps the resume excerpt sent to the model.
const maxResumeRunes = 4000

var responseSchema = schemas.MustCompile("pitch_generation", schemafiles.PitchGeneration)

// Generator is the structured completion capability. *llm.GeminiClient satisfies it.
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
}

// Response is the raw structured generation result.
type Response struct {
	ElevatorPitch30s string   `json:"elevatorPitch30s"`
	InterestingFacts []string `json:"interestingFacts"`
	TopMatchedRoles  []string `json:"topMatchedRoles"`
	SmartQuestions   []string `json:"smartQuestions"`
}

// Composer turns a profile and employer context into a PitchArtifact.
type Composer struct {
	gen     Generator
	tier    llm.ModelTier
	timeout time.Duration
	logger  *zap.Logger
}

// NewComposer creates a composer. A zero timeout uses DefaultTimeout.
func NewComposer(gen Generator, timeout time.Duration, log *zap.Logger) *Composer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Composer{
		gen:     gen,
		tier:    llm.TierStandard,
		timeout: timeout,
		logger:  log.Named("pitch"),
	}
}

// Compose generates the pitch card for companyName. Any generation failure,
// timeout or schema violation is returned as *GenerationSchemaError.
func (c *Composer) Compose(ctx context.Context, profile types.UserProfile, companyName string, emp types.EmployerContext) (types.PitchArtifact, error) {
	profile = profile.Normalize()
	companyName = strings.TrimSpace(companyName)
	prompt := BuildPrompt(profile, companyName, emp)

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	raw, err := c.gen.GenerateJSON(callCtx, prompt, c.tier)
	if err != nil {
		msg := "generation call failed"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			msg = fmt.Sprintf("generation timed out after %s", c.timeout)
		}
		return types.PitchArtifact{}, &GenerationSchemaError{Company: companyName, Message: msg, Cause: err}
	}
	c.logger.Debug("pitch generated",
		zap.String("company", companyName),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("response", logger.TruncateForLog(raw, 300)))

	resp, err := ParseResponse(raw)
	if err != nil {
		var gse *GenerationSchemaError
		if errors.As(err, &gse) {
			gse.Company = companyName
		}
		c.logger.Warn("pitch response rejected", zap.String("company", companyName), zap.Error(err))
		return types.PitchArtifact{}, err
	}

	return Assemble(resp, companyName, profile.DisplayName()), nil
}

// ParseResponse validates raw model output against the response schema and
// returns the cleaned result.
func ParseResponse(raw string) (Response, error) {
	doc := llm.CleanJSONBlock(raw)
	if err := responseSchema.Validate([]byte(doc)); err != nil {
		field := ""
		var verr *schemas.ValidationError
		if errors.As(err, &verr) {
			field = verr.First().Field
		}
		return Response{}, &GenerationSchemaError{Field: field, Message: "response does not match schema", Cause: err}
	}

	var resp Response
	if err := json.Unmarshal([]byte(doc), &resp); err != nil {
		return Response{}, &GenerationSchemaError{Message: "response could not be decoded", Cause: err}
	}

	resp.ElevatorPitch30s = singleParagraph(resp.ElevatorPitch30s)
	resp.InterestingFacts = compact(resp.InterestingFacts)
	resp.TopMatchedRoles = compact(resp.TopMatchedRoles)
	resp.SmartQuestions = compact(resp.SmartQuestions)

	switch {
	case resp.ElevatorPitch30s == "":
		return Response{}, &GenerationSchemaError{Field: "elevatorPitch30s", Message: "pitch is blank"}
	case len(resp.InterestingFacts) == 0:
		return Response{}, &GenerationSchemaError{Field: "interestingFacts", Message: "no non-blank facts"}
	case len(resp.TopMatchedRoles) == 0:
		return Response{}, &GenerationSchemaError{Field: "topMatchedRoles", Message: "no non-blank roles"}
	case len(resp.SmartQuestions) == 0:
		return Response{}, &GenerationSchemaError{Field: "smartQuestions", Message: "no non-blank questions"}
	}
	return resp, nil
}

// Assemble maps a validated response into the artifact shown to the candidate.
func Assemble(resp Response, companyName, displayName string) types.PitchArtifact {
	facts := make([]types.WowFact, 0, len(resp.InterestingFacts))
	for _, f := range resp.InterestingFacts {
		facts = append(facts, types.WowFact{Fact: f, Source: GeneratedFactSource, SourceURL: GeneratedFactURL})
	}
	return types.PitchArtifact{
		Pitch:           resp.ElevatorPitch30s,
		WowFacts:        facts,
		TopRoles:        resp.TopMatchedRoles,
		SmartQuestions:  resp.SmartQuestions,
		FollowUpMessage: FollowUpMessage(companyName, displayName),
	}
}

// BuildPrompt renders the generation prompt. The output depends only on its inputs.
func BuildPrompt(p types.UserProfile, companyName string, emp types.EmployerContext) string {
	news := "(none)"
	if len(emp.RecentNews) > 0 {
		news = "- " + strings.Join(emp.RecentNews, "\n- ")
	}
	return prompts.Format(prompts.MustGet("pitch.json", "generate-pitch"), map[string]string{
		"Name":                orNone(p.Name),
		"School":              orNone(p.School),
		"Major":               orNone(p.Major),
		"GraduationYear":      orNone(p.GraduationYear),
		"Location":            orNone(p.Location),
		"WorkAuthorization":   orNone(p.WorkAuthorization),
		"JobTypePreference":   orNone(string(p.JobTypePreference)),
		"PreferredRoles":      orNone(strings.Join(p.PreferredRoles, ", ")),
		"PreferredIndustries": orNone(strings.Join(sorted(p.PreferredIndustries), ", ")),
		"Skills":              orNone(strings.Join(sorted(p.Skills), ", ")),
		"Background":          orNone(p.Background),
		"ResumeText":          orNone(truncateRunes(p.ResumeText, maxResumeRunes)),
		"CompanyName":         companyName,
		"AboutText":           orNone(emp.AboutText),
		"RecentNews":          news,
		"CultureNotes":        orNone(emp.CultureNotes),
	})
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

func singleParagraph(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = singleParagraph(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

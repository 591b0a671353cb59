package pitch

import "github.com/jonathan/pitchprep/internal/prompts"

// Provenance attached to model-generated wow facts. The generation call is not
// asked for citations.
const (
	GeneratedFactSource = "AI Generated"
	GeneratedFactURL    = "#"
)

const followUpTemplate = "Hi [Name], it was great meeting you at the career fair! " +
	"I really enjoyed learning about {{.CompanyName}}. " +
	"I'd love to continue our conversation. Would you be open to a brief virtual coffee chat? " +
	"I've attached my resume for reference. Best, {{.DisplayName}}"

// FollowUpMessage renders the post-fair follow-up note. "[Name]" is left for the
// candidate to fill in with the recruiter's name.
func FollowUpMessage(companyName, displayName string) string {
	return prompts.Format(followUpTemplate, map[string]string{
		"CompanyName": companyName,
		"DisplayName": displayName,
	})
}

package research

import (
	"net/url"
	"sort"
	"strings"
)

// thirdPartyDomains host pages about a company that are not its own.
var thirdPartyDomains = []string{
	"greenhouse.io",
	"lever.co",
	"workday.com",
	"myworkdayjobs.com",
	"linkedin.com",
	"indeed.com",
	"glassdoor.com",
	"ziprecruiter.com",
	"handshake.com",
	"joinhandshake.com",
	"crunchbase.com",
	"bloomberg.com",
	"medium.com",
}

// extractDomainFromURL returns the host of urlStr without a leading "www.".
func extractDomainFromURL(urlStr string) string {
	if urlStr == "" {
		return ""
	}
	if !strings.Contains(urlStr, "://") {
		urlStr = "https://" + urlStr
	}
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Host, "www.")
}

// IsThirdParty reports whether urlStr is on a job board or aggregator.
func IsThirdParty(urlStr string) bool {
	domain := strings.ToLower(extractDomainFromURL(urlStr))
	for _, d := range thirdPartyDomains {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

// AssignPathPriority scores how likely a URL path describes the company itself.
func AssignPathPriority(urlStr string) float64 {
	lower := strings.ToLower(urlStr)
	for _, p := range []string{"about", "who-we-are", "our-story", "company", "mission"} {
		if strings.Contains(lower, p) {
			return 0.9
		}
	}
	for _, p := range []string{"culture", "values", "careers"} {
		if strings.Contains(lower, p) {
			return 0.8
		}
	}
	if strings.Contains(lower, "wikipedia.org") {
		return 0.6
	}
	return 0.5
}

// RankAboutLinks drops third-party links and orders the rest by path priority,
// keeping search order among equals.
func RankAboutLinks(results []SearchResult) []string {
	var links []string
	seen := make(map[string]bool)
	for _, r := range results {
		if r.Link == "" || seen[r.Link] || IsThirdParty(r.Link) {
			continue
		}
		seen[r.Link] = true
		links = append(links, r.Link)
	}
	sort.SliceStable(links, func(i, j int) bool {
		return AssignPathPriority(links[i]) > AssignPathPriority(links[j])
	})
	return links
}

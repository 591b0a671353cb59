package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/jonathan/pitchprep/internal/llm"
	"github.com/jonathan/pitchprep/internal/logger"
	"github.com/jonathan/pitchprep/internal/prompts"
	"github.com/jonathan/pitchprep/internal/schemas"
	schemafiles "github.com/jonathan/pitchprep/schemas"
)

const (
	aboutResults  = 5
	newsResults   = 5
	maxPageRunes  = 6000
	maxAboutPages = 3
)

var findingsSchema = schemas.MustCompile("employer_context", schemafiles.EmployerContext)

// SearchResult is one web search hit.
type SearchResult struct {
	Title   string
	Link    string
	Snippet string
}

// Searcher runs web searches.
type Searcher interface {
	Search(ctx context.Context, query string, num int64) ([]SearchResult, error)
}

// PageFetcher returns the readable text of a page. *fetch.Fetcher satisfies it.
type PageFetcher interface {
	PageText(ctx context.Context, rawURL string) (string, error)
}

// Generator is the structured completion capability. *llm.GeminiClient satisfies it.
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
}

// CustomSearch is a Searcher backed by the Google Custom Search JSON API.
type CustomSearch struct {
	svc *customsearch.Service
	cx  string
}

// NewCustomSearch creates a Custom Search client for the engine cx.
func NewCustomSearch(ctx context.Context, apiKey, cx string) (*CustomSearch, error) {
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &CustomSearch{svc: svc, cx: cx}, nil
}

// Search implements Searcher.
func (s *CustomSearch) Search(ctx context.Context, query string, num int64) ([]SearchResult, error) {
	resp, err := s.svc.Cse.List().Cx(s.cx).Q(query).Num(num).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	out := make([]SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		out = append(out, SearchResult{Title: item.Title, Link: item.Link, Snippet: item.Snippet})
	}
	return out, nil
}

// WebCapability researches an employer from its about page and recent news,
// summarized by the model. Without a Searcher it asks the model to recall the
// company from its own knowledge.
type WebCapability struct {
	search Searcher
	pages  PageFetcher
	gen    Generator
	logger *zap.Logger
}

// NewWebCapability wires the capability. search and pages may be nil.
func NewWebCapability(search Searcher, pages PageFetcher, gen Generator, log *zap.Logger) *WebCapability {
	return &WebCapability{
		search: search,
		pages:  pages,
		gen:    gen,
		logger: logger.OrNop(log).Named("web_research"),
	}
}

// Research implements Capability.
func (w *WebCapability) Research(ctx context.Context, companyName string) (*Findings, error) {
	if w.gen == nil {
		return nil, fmt.Errorf("no generator configured")
	}
	if w.search == nil {
		return w.recall(ctx, companyName)
	}

	about, err := w.search.Search(ctx, companyName+" about", aboutResults)
	if err != nil {
		return nil, fmt.Errorf("about search failed: %w", err)
	}
	aboutURL, aboutPage := w.readAboutPage(ctx, about)

	news, err := w.search.Search(ctx, companyName+" news", newsResults)
	if err != nil {
		w.logger.Warn("news search failed", zap.String("company", companyName), zap.Error(err))
		news = nil
	}

	if aboutPage == "" && len(news) == 0 {
		w.logger.Info("no web material found, recalling employer", zap.String("company", companyName))
		return w.recall(ctx, companyName)
	}

	prompt := prompts.Format(prompts.MustGet("research.json", "summarize-employer"), map[string]string{
		"CompanyName": companyName,
		"AboutURL":    orNone(aboutURL),
		"AboutPage":   orNone(aboutPage),
		"NewsResults": orNone(formatNews(news)),
	})
	return w.summarize(ctx, prompt)
}

func (w *WebCapability) readAboutPage(ctx context.Context, results []SearchResult) (string, string) {
	if w.pages == nil {
		return "", ""
	}
	links := RankAboutLinks(results)
	if len(links) > maxAboutPages {
		links = links[:maxAboutPages]
	}
	for _, link := range links {
		text, err := w.pages.PageText(ctx, link)
		if err != nil {
			w.logger.Debug("about page fetch failed", zap.String("url", link), zap.Error(err))
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			return link, truncateRunes(text, maxPageRunes)
		}
	}
	return "", ""
}

func (w *WebCapability) recall(ctx context.Context, companyName string) (*Findings, error) {
	prompt := prompts.Format(prompts.MustGet("research.json", "recall-employer"), map[string]string{
		"CompanyName": companyName,
	})
	return w.summarize(ctx, prompt)
}

func (w *WebCapability) summarize(ctx context.Context, prompt string) (*Findings, error) {
	raw, err := w.gen.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, fmt.Errorf("summary generation failed: %w", err)
	}
	findings, err := ParseFindings(raw)
	if err != nil {
		w.logger.Debug("invalid research summary", zap.String("raw", logger.TruncateForLog(raw, 500)))
		return nil, err
	}
	return findings, nil
}

// ParseFindings validates a model response against the employer context schema
// and decodes it.
func ParseFindings(raw string) (*Findings, error) {
	cleaned := llm.CleanJSONBlock(raw)
	if err := findingsSchema.Validate([]byte(cleaned)); err != nil {
		return nil, err
	}
	var f Findings
	if err := json.Unmarshal([]byte(cleaned), &f); err != nil {
		return nil, fmt.Errorf("failed to decode research summary: %w", err)
	}
	if len(f.RecentNews) > newsResults {
		f.RecentNews = f.RecentNews[:newsResults]
	}
	return &f, nil
}

func formatNews(results []SearchResult) string {
	var sb strings.Builder
	for _, r := range results {
		title := strings.TrimSpace(r.Title)
		snippet := strings.Join(strings.Fields(r.Snippet), " ")
		if title == "" && snippet == "" {
			continue
		}
		fmt.Fprintf(&sb, "- %s: %s (%s)\n", title, snippet, r.Link)
	}
	return strings.TrimSpace(sb.String())
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

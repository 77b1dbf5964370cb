package ingestion

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/hiretree/internal/fetch"
	"github.com/jonathan/hiretree/internal/skills"
	"github.com/jonathan/hiretree/internal/types"
)

// JobParser extracts job details from a clip. Implementations may call
// external services; callers fall back to FallbackDetails on error.
type JobParser interface {
	ParseJob(ctx context.Context, url, rawText string) (types.JobDetails, error)
}

// maxTitleLen bounds titles taken from the first line of pasted text.
const maxTitleLen = 140

// maxDescriptionLen bounds the stored description.
const maxDescriptionLen = 20000

// FallbackDetails is what a clip gets when no parser could make sense of it.
func FallbackDetails(url string) types.JobDetails {
	title := strings.TrimSpace(url)
	if title == "" {
		title = "Untitled"
	}
	return types.JobDetails{Title: title, Stack: []string{}}
}

// HeuristicParser extracts details locally, reading HTML with goquery and
// plain text line by line.
type HeuristicParser struct{}

var htmlMarker = regexp.MustCompile(`(?i)<(html|body|head|div|article|main|section|p|h1|h2|ul)[\s>]`)

// ParseJob implements JobParser.
func (HeuristicParser) ParseJob(_ context.Context, url, rawText string) (types.JobDetails, error) {
	if strings.TrimSpace(rawText) == "" {
		return FallbackDetails(url), nil
	}

	var d types.JobDetails
	if htmlMarker.MatchString(rawText) {
		var err error
		d, err = parseHTML(url, rawText)
		if err != nil {
			return types.JobDetails{}, err
		}
	} else {
		d = parseText(rawText)
	}

	if d.Title == "" {
		d.Title = FallbackDetails(url).Title
	}
	haystack := strings.Join([]string{d.Title, d.Location, d.Description}, "\n")
	if d.Mode == "" {
		d.Mode = detectMode(haystack)
	}
	if d.Seniority == "" {
		d.Seniority = detectSeniority(d.Title)
	}
	if d.Seniority == "" {
		d.Seniority = detectSeniority(d.Description)
	}
	if d.Contract == "" {
		d.Contract = detectContract(haystack)
	}
	if d.Salary == "" {
		d.Salary = detectSalary(haystack)
	}
	d.Stack = detectStack(haystack)
	if len(d.Description) > maxDescriptionLen {
		d.Description = d.Description[:maxDescriptionLen]
	}
	return d, nil
}

func parseText(raw string) types.JobDetails {
	text := CleanText(raw)
	title, rest := firstLine(text)
	if len(title) > maxTitleLen {
		title = strings.TrimSpace(title[:maxTitleLen])
	}
	d := types.JobDetails{Title: title, Description: text}

	// "Company · Location" or "Company - Location" right under the title
	if second, _ := firstLine(rest); second != "" && len(second) < 80 {
		for _, sep := range []string{" · ", " | ", " - ", " — "} {
			if company, loc, ok := strings.Cut(second, sep); ok {
				d.Company = strings.TrimSpace(company)
				d.Location = strings.TrimSpace(loc)
				break
			}
		}
	}
	return d
}

func parseHTML(url, raw string) (types.JobDetails, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return types.JobDetails{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var d types.JobDetails
	d.Title = firstNonEmpty(
		attr(doc, `meta[property="og:title"]`, "content"),
		text(doc, "h1"),
		text(doc, "title"),
	)
	d.Company = firstNonEmpty(
		text(doc, `[itemprop="hiringOrganization"] [itemprop="name"]`),
		text(doc, `[itemprop="hiringOrganization"]`),
		text(doc, ".company-name"),
		attr(doc, `meta[property="og:site_name"]`, "content"),
	)
	d.Location = firstNonEmpty(
		text(doc, `[itemprop="jobLocation"]`),
		text(doc, ".location"),
		text(doc, ".posting-categories .location"),
	)
	d.Salary = text(doc, `[itemprop="baseSalary"]`)

	platform := fetch.DetectPlatform(url)
	doc.Find(strings.Join(fetch.NoiseSelectors(platform), ", ")).Remove()

	main := doc.Find("body")
	for _, sel := range fetch.ContentSelectors(platform) {
		if s := doc.Find(sel); s.Length() > 0 {
			main = s.First()
			break
		}
	}
	d.Description = CleanText(blockText(main))
	return d, nil
}

// blockText reads text with a newline after every block element so lines
// survive the trip through goquery.
func blockText(s *goquery.Selection) string {
	s.Find("p, li, br, h1, h2, h3, h4, div, tr").Each(func(_ int, el *goquery.Selection) {
		el.AppendHtml("\n")
	})
	return s.Text()
}

func text(doc *goquery.Document, sel string) string {
	return strings.Join(strings.Fields(doc.Find(sel).First().Text()), " ")
}

func attr(doc *goquery.Document, sel, name string) string {
	v, _ := doc.Find(sel).First().Attr(name)
	return strings.TrimSpace(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var (
	hybridRe = regexp.MustCompile(`(?i)\bhybrid\b`)
	remoteRe = regexp.MustCompile(`(?i)\b(remote|work from home|wfh|distributed team)\b`)
	onsiteRe = regexp.MustCompile(`(?i)\b(on-?site|in[- ]office|in person)\b`)

	salaryRe = regexp.MustCompile(`[$€£]\s?\d[\d,.]*\s?[kK]?(\s?(-|–|to)\s?[$€£]?\s?\d[\d,.]*\s?[kK]?)?`)
)

func detectMode(text string) string {
	switch {
	case hybridRe.MatchString(text):
		return "hybrid"
	case remoteRe.MatchString(text):
		return "remote"
	case onsiteRe.MatchString(text):
		return "onsite"
	}
	return ""
}

var seniorities = []struct {
	label string
	re    *regexp.Regexp
}{
	{"principal", regexp.MustCompile(`(?i)\bprincipal\b`)},
	{"staff", regexp.MustCompile(`(?i)\bstaff\b`)},
	{"lead", regexp.MustCompile(`(?i)\b(lead|tech lead|team lead)\b`)},
	{"senior", regexp.MustCompile(`(?i)\b(senior|sr\.?)\s`)},
	{"junior", regexp.MustCompile(`(?i)\b(junior|jr\.?|entry[- ]level|graduate)\s`)},
	{"intern", regexp.MustCompile(`(?i)\bintern(ship)?\b`)},
	{"mid", regexp.MustCompile(`(?i)\bmid[- ]level\b`)},
}

func detectSeniority(text string) string {
	for _, s := range seniorities {
		if s.re.MatchString(text) {
			return s.label
		}
	}
	return ""
}

var contracts = []struct {
	label string
	re    *regexp.Regexp
}{
	{"internship", regexp.MustCompile(`(?i)\binternship\b`)},
	{"part-time", regexp.MustCompile(`(?i)\bpart[- ]time\b`)},
	{"freelance", regexp.MustCompile(`(?i)\bfreelance\b`)},
	{"contract", regexp.MustCompile(`(?i)\b(contract(or)?|fixed[- ]term)\b`)},
	{"full-time", regexp.MustCompile(`(?i)\b(full[- ]time|permanent)\b`)},
}

func detectContract(text string) string {
	for _, c := range contracts {
		if c.re.MatchString(text) {
			return c.label
		}
	}
	return ""
}

func detectSalary(text string) string {
	return strings.TrimRight(salaryRe.FindString(text), " .,")
}

// techTerms are matched case-insensitively as whole tokens.
var techTerms = []string{
	"golang", "python", "java", "javascript", "typescript", "ruby", "rails", "php", "scala",
	"kotlin", "rust", "elixir", "c#", "c++", ".net", "react", "reactjs", "react.js",
	"vue", "vue.js", "angular", "svelte", "next.js", "node", "node.js", "nodejs", "django",
	"flask", "fastapi", "graphql", "grpc", "postgres", "postgresql", "mysql",
	"mongodb", "redis", "elasticsearch", "kafka", "rabbitmq", "dynamodb", "snowflake",
	"airflow", "dbt", "docker", "kubernetes", "k8s", "terraform", "ansible", "aws", "gcp",
	"azure", "linux", "sql", "pytorch", "tensorflow", "tailwind", "css", "html",
}

// caseSensitiveTerms would be common words in lowercase.
var caseSensitiveTerms = []string{"Go", "R", "C", "Swift", "Spring", "Spark"}

var tokenRe = regexp.MustCompile(`[A-Za-z0-9#+.]+`)

func detectStack(text string) []string {
	terms := make(map[string]bool, len(techTerms))
	for _, t := range techTerms {
		terms[t] = true
	}
	exact := make(map[string]bool, len(caseSensitiveTerms))
	for _, t := range caseSensitiveTerms {
		exact[t] = true
	}

	var found []string
	for _, tok := range tokenRe.FindAllString(text, -1) {
		tok = strings.TrimRight(tok, ".")
		switch {
		case exact[tok]:
			found = append(found, tok)
		case terms[strings.ToLower(tok)]:
			found = append(found, tok)
		}
	}
	return skills.NormalizeStack(found)
}

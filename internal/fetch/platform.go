package fetch

import (
	"net/url"
	"strings"
)

// Platform is a job board whose page layout is known.
type Platform string

// Known platforms.
const (
	Greenhouse Platform = "greenhouse"
	Lever      Platform = "lever"
	Workday    Platform = "workday"
	Ashby      Platform = "ashby"
	Unknown    Platform = "unknown"
)

type layout struct {
	platform Platform
	hosts    []string
	content  []string
	noise    []string
}

var layouts = []layout{
	{
		platform: Greenhouse,
		hosts:    []string{"greenhouse.io"},
		content:  []string{".job__description", "#content", ".job-post-container"},
		noise:    []string{".application--wrapper", "#usa_self_id_section", ".post-apply"},
	},
	{
		platform: Lever,
		hosts:    []string{"lever.co"},
		content:  []string{".posting-page", ".section-wrapper.page-full-width", ".posting-description"},
		noise:    []string{".apply-section", ".posting-apply"},
	},
	{
		platform: Workday,
		hosts:    []string{"workday.com", "myworkdayjobs.com"},
		content:  []string{"[data-automation-id='jobPostingDescription']", "[data-automation-id='jobDescription']"},
		noise:    []string{"[data-automation-id='applyButton']"},
	},
	{
		platform: Ashby,
		hosts:    []string{"ashbyhq.com"},
		content:  []string{"._descriptionText", "[class*='description']"},
	},
}

// genericContent is tried on pages from unknown hosts, in order.
var genericContent = []string{
	".job-description",
	"#job-description",
	".job-details",
	".posting-content",
	"[data-testid='job-description']",
	"[itemprop='description']",
	"main",
	"article",
	"#content",
}

// commonNoise is stripped from every page before text extraction.
var commonNoise = []string{
	"nav", "footer", "header", "script", "style", "noscript", "svg",
	"form", ".cookie-banner", ".cookie-consent", ".social-share",
	".eeo-statement", ".voluntary-disclosure", ".sidebar",
}

// DetectPlatform identifies the job board serving rawURL.
func DetectPlatform(rawURL string) Platform {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Unknown
	}
	host := strings.ToLower(u.Hostname())
	for _, l := range layouts {
		for _, h := range l.hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return l.platform
			}
		}
	}
	return Unknown
}

// ContentSelectors returns the selectors holding the posting body, most
// specific first. Generic selectors always follow the platform ones.
func ContentSelectors(p Platform) []string {
	var out []string
	for _, l := range layouts {
		if l.platform == p {
			out = append(out, l.content...)
		}
	}
	return append(out, genericContent...)
}

// NoiseSelectors returns the elements to drop before reading text.
func NoiseSelectors(p Platform) []string {
	out := append([]string(nil), commonNoise...)
	for _, l := range layouts {
		if l.platform == p {
			out = append(out, l.noise...)
		}
	}
	return out
}

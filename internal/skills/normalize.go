// Package skills is the display side of skill matching: canonical skill
// names, effective ratings, recency tiers and match score presentation. Match
// scores themselves are computed elsewhere.
package skills

import (
	"strings"
)

// aliases maps common skill name variants to canonical names
var aliases = map[string]string{
	"golang":     "Go",
	"go lang":    "Go",
	"javascript": "JavaScript",
	"js":         "JavaScript",
	"typescript": "TypeScript",
	"ts":         "TypeScript",
	"k8s":        "Kubernetes",
	"kubernetes": "Kubernetes",
	"react.js":   "React",
	"reactjs":    "React",
	"vue.js":     "Vue",
	"vuejs":      "Vue",
	"node.js":    "Node.js",
	"nodejs":     "Node.js",
	"node":       "Node.js",
	"postgres":   "PostgreSQL",
	"postgresql": "PostgreSQL",
	"psql":       "PostgreSQL",
	"mongo":      "MongoDB",
	"mongodb":    "MongoDB",
	"gcp":        "Google Cloud",
	"aws":        "AWS",
	"sql":        "SQL",
	"css":        "CSS",
	"html":       "HTML",
	"c#":         "C#",
	"c++":        "C++",
	".net":       ".NET",
	"dotnet":     ".NET",
	"php":        "PHP",
	"graphql":    "GraphQL",
	"grpc":       "gRPC",
	"mysql":      "MySQL",
	"fastapi":    "FastAPI",
	"rabbitmq":   "RabbitMQ",
	"dynamodb":   "DynamoDB",
	"pytorch":    "PyTorch",
	"tensorflow": "TensorFlow",
	"next.js":    "Next.js",
	"nextjs":     "Next.js",
	"dbt":        "dbt",
}

// NormalizeName returns the canonical form of a skill name.
func NormalizeName(name string) string {
	normalized := strings.TrimSpace(name)
	if normalized == "" {
		return ""
	}

	lower := strings.ToLower(normalized)
	if canonical, ok := aliases[lower]; ok {
		return canonical
	}

	// All-caps single words that aren't known acronyms get a capital first letter only
	if normalized == strings.ToUpper(normalized) && normalized != lower {
		if !strings.Contains(lower, " ") && len(normalized) > 3 {
			return strings.ToUpper(normalized[:1]) + lower[1:]
		}
		return normalized
	}

	// Mixed case is intentional
	if normalized != lower {
		return normalized
	}

	if !strings.Contains(normalized, " ") {
		return strings.ToUpper(normalized[:1]) + normalized[1:]
	}
	return normalized
}

// NormalizeStack normalizes a technology list, dropping empties and keeping
// the first occurrence of each canonical name.
func NormalizeStack(stack []string) []string {
	out := make([]string, 0, len(stack))
	seen := make(map[string]bool, len(stack))
	for _, s := range stack {
		n := NormalizeName(s)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

// Equal reports whether two skill names refer to the same skill.
func Equal(a, b string) bool {
	return strings.EqualFold(NormalizeName(a), NormalizeName(b))
}

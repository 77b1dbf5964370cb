package ingestion

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/hiretree/internal/skills"
	"github.com/jonathan/hiretree/internal/types"
)

var (
	presentRe = regexp.MustCompile(`(?i)\b(present|current|now|today)\b`)
	yearRe    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	techSep   = regexp.MustCompile(`[,;/|\n]+`)
)

// ProfileFromEntries builds a profile from manually entered work history.
// Each entry's technologies column becomes skills; the most recent mention
// of a skill decides its recency and last used year.
func ProfileFromEntries(entries []types.WorkEntry, now time.Time) types.ParsedProfile {
	var p types.ParsedProfile
	index := map[string]int{}
	first, last := 0, 0

	for _, e := range entries {
		start, end, current := periodYears(e.Period, now.Year())
		if current && p.CurrentRole == "" {
			p.CurrentRole = strings.TrimSpace(e.Role)
		}
		if start > 0 && (first == 0 || start < first) {
			first = start
		}
		if end > last {
			last = end
		}

		years := 0
		if start > 0 && end >= start {
			years = end - start
			if years == 0 {
				years = 1
			}
		}

		inEntry := map[string]bool{}
		for _, tech := range techSep.Split(e.Technologies, -1) {
			name := skills.NormalizeName(tech)
			key := strings.ToLower(name)
			if name == "" || inEntry[key] {
				continue
			}
			inEntry[key] = true
			i, seen := index[key]
			if !seen {
				p.Skills = append(p.Skills, types.Skill{Name: name, AIConfidence: types.DefaultAIConfidence})
				i = len(p.Skills) - 1
				index[key] = i
			}
			s := &p.Skills[i]
			s.Years += years
			if end > 0 && (s.LastUsedYear == nil || end > *s.LastUsedYear) {
				y := end
				s.LastUsedYear = &y
				s.Recency = recencyFor(end, current, now.Year())
			}
		}
	}

	if p.CurrentRole == "" && len(entries) > 0 {
		p.CurrentRole = strings.TrimSpace(entries[0].Role)
	}
	if first > 0 && last >= first {
		p.YearsExperience = last - first
	}
	for i := range p.Skills {
		if p.Skills[i].Years > p.YearsExperience && p.YearsExperience > 0 {
			p.Skills[i].Years = p.YearsExperience
		}
	}
	if len(entries) > 0 {
		e := entries[0]
		p.Summary = strings.TrimSpace(strings.Join(nonEmpty(e.Role, e.Company), " at "))
	}
	if p.Skills == nil {
		p.Skills = []types.Skill{}
	}
	return p
}

// RefineSkills folds work history into an existing skill list. Known skills
// pick up fresher recency and longer tenure; new ones are appended. Ratings
// and notes are never touched here.
func RefineSkills(existing []types.Skill, entries []types.WorkEntry, now time.Time) []types.Skill {
	out := make([]types.Skill, len(existing))
	index := make(map[string]int, len(existing))
	for i, s := range existing {
		out[i] = s.Clone()
		index[strings.ToLower(skills.NormalizeName(s.Name))] = i
	}

	for _, s := range ProfileFromEntries(entries, now).Skills {
		i, ok := index[strings.ToLower(s.Name)]
		if !ok {
			index[strings.ToLower(s.Name)] = len(out)
			out = append(out, s)
			continue
		}
		cur := &out[i]
		if s.Years > cur.Years {
			cur.Years = s.Years
		}
		if s.LastUsedYear != nil && (cur.LastUsedYear == nil || *s.LastUsedYear > *cur.LastUsedYear) {
			y := *s.LastUsedYear
			cur.LastUsedYear = &y
			cur.Recency = s.Recency
		}
	}
	return out
}

// periodYears reads "2019 - Present" style periods.
func periodYears(period string, thisYear int) (start, end int, current bool) {
	for _, m := range yearRe.FindAllString(period, -1) {
		y, _ := strconv.Atoi(m)
		if start == 0 || y < start {
			start = y
		}
		if y > end {
			end = y
		}
	}
	if presentRe.MatchString(period) {
		return start, thisYear, true
	}
	return start, end, false
}

func recencyFor(lastYear int, current bool, thisYear int) string {
	switch {
	case current || lastYear >= thisYear:
		return types.RecencyCurrent
	case thisYear-lastYear <= 2:
		return types.RecencyRecent
	default:
		return types.RecencyOld
	}
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

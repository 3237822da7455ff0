package intent

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/soyeahso/sidekick/internal/textnorm"
)

var (
	isoDatePattern    = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	frenchDatePattern = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	timePattern       = regexp.MustCompile(`\b([01]?\d|2[0-3])(?:h|:)([0-5]\d)?\b`)
	quotedPattern     = regexp.MustCompile(`["«“]\s*([^"»”]+?)\s*["»”]`)
)

var priorityWords = []struct {
	words []string
	value string
}{
	{[]string{"haute", "urgent", "urgente", "prioritaire"}, "haute"},
	{[]string{"moyenne", "normale"}, "moyenne"},
	{[]string{"basse", "faible"}, "basse"},
}

var absenceWords = []struct {
	words []string
	value string
}{
	{[]string{"conges", "vacances"}, "conges"},
	{[]string{"maladie", "malade"}, "maladie"},
	{[]string{"rtt"}, "rtt"},
}

// extractEntities pulls dates, times, priorities, absence types and quoted
// titles out of text. Dates fill def.DateFields in order of appearance.
func extractEntities(text string, def ActionDefinition) map[string]string {
	entities := make(map[string]string)

	dateFields := def.DateFields
	if len(dateFields) == 0 {
		dateFields = []string{"date"}
	}
	for i, d := range ExtractDates(text) {
		if i >= len(dateFields) {
			break
		}
		entities[dateFields[i]] = d
	}

	if m := timePattern.FindStringSubmatch(text); m != nil {
		entities["time"] = normaliseTime(m[1], m[2])
	}

	if m := quotedPattern.FindStringSubmatch(text); m != nil {
		field := def.TitleField
		if field == "" {
			field = "title"
		}
		entities[field] = m[1]
	}

	words := textnorm.Words(text)
	if v := firstWordMatch(words, priorityWords); v != "" {
		entities["priority"] = v
	}
	if v := firstWordMatch(words, absenceWords); v != "" {
		entities["absence_type"] = v
	}

	if len(entities) == 0 {
		return nil
	}
	return entities
}

func firstWordMatch(words []string, table []struct {
	words []string
	value string
}) string {
	for _, w := range words {
		for _, entry := range table {
			for _, candidate := range entry.words {
				if w == candidate {
					return entry.value
				}
			}
		}
	}
	return ""
}

type datePos struct {
	at  int
	iso string
}

// ExtractDates returns every valid date in text, ISO (2026-03-10) or French
// (10/03/2026), normalised to ISO and ordered by position.
func ExtractDates(text string) []string {
	var found []datePos
	for _, m := range isoDatePattern.FindAllStringSubmatchIndex(text, -1) {
		if iso, ok := makeDate(text[m[2]:m[3]], text[m[4]:m[5]], text[m[6]:m[7]]); ok {
			found = append(found, datePos{at: m[0], iso: iso})
		}
	}
	for _, m := range frenchDatePattern.FindAllStringSubmatchIndex(text, -1) {
		if iso, ok := makeDate(text[m[6]:m[7]], text[m[4]:m[5]], text[m[2]:m[3]]); ok {
			found = append(found, datePos{at: m[0], iso: iso})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].at < found[j].at })

	out := make([]string, len(found))
	for i, f := range found {
		out[i] = f.iso
	}
	return out
}

// ParseDate accepts a single ISO or French date and returns it as ISO.
func ParseDate(s string) (string, bool) {
	dates := ExtractDates(s)
	if len(dates) != 1 {
		return "", false
	}
	return dates[0], true
}

func makeDate(year, month, day string) (string, bool) {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return "", false
	}
	return t.Format(time.DateOnly), true
}

func normaliseTime(hour, minute string) string {
	h, _ := strconv.Atoi(hour)
	m, _ := strconv.Atoi(minute)
	return fmt.Sprintf("%02d:%02d", h, m)
}

// ParseTime accepts "14:30", "14h30" or "14h" and returns "HH:MM".
func ParseTime(s string) (string, bool) {
	m := timePattern.FindStringSubmatch(s)
	if m == nil || len(m[0]) != len(s) {
		return "", false
	}
	return normaliseTime(m[1], m[2]), true
}

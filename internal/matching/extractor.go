// internal/matching/extractor.go
package matching

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Known field keys accepted by ExtractEntities.
const (
	FieldRegion         = "region"
	FieldSpecialization = "specialization"
	FieldBudgetRange    = "budget_range"
	FieldTimeline       = "timeline"
	FieldUrgencyLevel   = "urgency_level"
	FieldProjectScale   = "project_scale"
)

// TimelineUrgent is the timeline value produced for urgent requests with no
// numeric timeline.
const TimelineUrgent = "срочно"

type keywordRule struct {
	needle string
	value  string
}

// Evaluated top to bottom, first hit wins.
var regionRules = []keywordRule{
	{"подмосков", "Московская область"},
	{"московск", "Московская область"},
	{"москв", "Московская область"},
	{"санкт-петербург", "Санкт-Петербург"},
	{"петербург", "Санкт-Петербург"},
	{"питер", "Санкт-Петербург"},
	{"спб", "Санкт-Петербург"},
	{"ленинградск", "Ленинградская область"},
	{"казан", "Казань"},
	{"новосибирск", "Новосибирск"},
	{"екатеринбург", "Екатеринбург"},
}

var specializationRules = []keywordRule{
	{"каркасн", "каркасные дома"},
	{"деревян", "деревянные дома"},
	{"брус", "деревянные дома"},
	{"кирпич", "кирпичные дома"},
	{"отделк", "отделочные работы"},
	{"кровл", "кровельные работы"},
	{"фундамент", "фундаменты"},
	{"сантехник", "сантехнические работы"},
	{"электр", "электромонтажные работы"},
	{"ремонт", "ремонт"},
}

type urgencyRule struct {
	phrase string
	level  int
}

// "очень срочно" and "не срочно" must be tested before plain "срочно".
var urgencyRules = []urgencyRule{
	{"очень срочно", 9},
	{"не срочно", 3},
	{"как можно скорее", 8},
	{"в ближайшее время", 6},
	{"срочно", 7},
}

var urgencyFallback = []string{"срочн", "быстр", "скорее"}

const urgencyFallbackLevel = 7

type scaleRule struct {
	needles []string
	scale   ProjectScale
}

var scaleRules = []scaleRule{
	{[]string{"коттедж", "дом", "дач"}, ScalePrivateHouse},
	{[]string{"квартир", "апартамент"}, ScaleApartment},
	{[]string{"коммерч", "офис", "магазин", "склад"}, ScaleCommercial},
	{[]string{"промышлен", "завод", "цех"}, ScaleIndustrial},
}

const number = `(\d+(?:[.,]\d+)?)`

var (
	budgetRangeRe    = regexp.MustCompile(number + `\s*[-–]\s*` + number + `\s*(млн|миллион|тыс)`)
	budgetMillionRe  = regexp.MustCompile(number + `\s*(?:млн|миллион)`)
	budgetThousandRe = regexp.MustCompile(number + `\s*тыс`)
	budgetKeywordRe  = regexp.MustCompile(`бюджет[^\d]{0,20}(\d+)`)

	timelineMonthsRe = regexp.MustCompile(`(\d+)\s*месяц`)
	timelineWeeksRe  = regexp.MustCompile(`(\d+)\s*недел`)
)

var timelineUrgentWords = []string{"срочн", "быстр"}

// ExtractEntities turns a free-text message and already-known structured
// fields into RequestEntities. Known non-empty fields always win over values
// inferred from text. It never fails: missing signals yield defaults.
func ExtractEntities(message string, known map[string]interface{}) RequestEntities {
	text := strings.ToLower(message)
	e := NewRequestEntities()

	if v := knownString(known, FieldRegion); v != "" {
		e.Region = v
	} else {
		e.Region = firstKeyword(text, regionRules)
	}

	if v := knownString(known, FieldSpecialization); v != "" {
		e.Specialization = v
	} else {
		e.Specialization = firstKeyword(text, specializationRules)
	}

	if v := knownString(known, FieldBudgetRange); v != "" {
		e.BudgetRange = v
	} else {
		e.BudgetRange = extractBudget(text)
	}

	if v := knownString(known, FieldTimeline); v != "" {
		e.Timeline = v
	} else {
		e.Timeline = extractTimeline(text)
	}

	if lvl, ok := knownInt(known, FieldUrgencyLevel); ok {
		e.UrgencyLevel = clampInt(lvl, 0, 10)
	} else {
		e.UrgencyLevel = extractUrgency(text)
	}

	if v := knownString(known, FieldProjectScale); v != "" && isProjectScale(v) {
		e.ProjectScale = ProjectScale(v)
	} else {
		e.ProjectScale = extractScale(text)
	}

	return e
}

func firstKeyword(text string, rules []keywordRule) string {
	for _, r := range rules {
		if strings.Contains(text, r.needle) {
			return r.value
		}
	}
	return ""
}

func extractBudget(text string) string {
	if m := budgetRangeRe.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%s-%s %s", normalizeNumber(m[1]), normalizeNumber(m[2]), budgetUnit(m[3]))
	}
	if m := budgetMillionRe.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%s %s", normalizeNumber(m[1]), budgetUnit("млн"))
	}
	if m := budgetThousandRe.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%s %s", normalizeNumber(m[1]), budgetUnit("тыс"))
	}
	if m := budgetKeywordRe.FindStringSubmatch(text); m != nil {
		return m[1] + " рублей"
	}
	return ""
}

func budgetUnit(token string) string {
	if strings.HasPrefix(token, "тыс") {
		return "тысяч рублей"
	}
	return "млн рублей"
}

func normalizeNumber(s string) string {
	return strings.ReplaceAll(s, ",", ".")
}

func extractTimeline(text string) string {
	if m := timelineMonthsRe.FindStringSubmatch(text); m != nil {
		return m[1] + " месяцев"
	}
	if m := timelineWeeksRe.FindStringSubmatch(text); m != nil {
		return m[1] + " недель"
	}
	for _, w := range timelineUrgentWords {
		if strings.Contains(text, w) {
			return TimelineUrgent
		}
	}
	return ""
}

func extractUrgency(text string) int {
	for _, r := range urgencyRules {
		if strings.Contains(text, r.phrase) {
			return r.level
		}
	}
	for _, w := range urgencyFallback {
		if strings.Contains(text, w) {
			return urgencyFallbackLevel
		}
	}
	return DefaultUrgency
}

func extractScale(text string) ProjectScale {
	for _, r := range scaleRules {
		for _, n := range r.needles {
			if strings.Contains(text, n) {
				return r.scale
			}
		}
	}
	return ScaleUndetermined
}

func isProjectScale(v string) bool {
	switch ProjectScale(v) {
	case ScalePrivateHouse, ScaleApartment, ScaleCommercial, ScaleIndustrial, ScaleUndetermined:
		return true
	}
	return false
}

func knownString(known map[string]interface{}, key string) string {
	raw, ok := known[key]
	if !ok || raw == nil {
		return ""
	}
	var v string
	switch t := raw.(type) {
	case string:
		v = t
	case fmt.Stringer:
		v = t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	}
	// Blank values count as absent; anything else is kept as given.
	if strings.TrimSpace(v) == "" {
		return ""
	}
	return v
}

func knownInt(known map[string]interface{}, key string) (int, bool) {
	raw, ok := known[key]
	if !ok || raw == nil {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case interface{ Int64() (int64, error) }:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

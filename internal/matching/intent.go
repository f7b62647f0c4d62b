// internal/matching/intent.go
package matching

import (
	"math"
	"regexp"
	"strings"
)

const (
	baseConfidence      = 0.5
	matchedConfidence   = 0.8
	indicatorBoost      = 0.2
	maxIntentConfidence = 1.0
)

type intentPatterns struct {
	intent   Intent
	patterns []*regexp.Regexp
}

// Order matters: the first intent with any matching pattern wins.
var intentGroups = []intentPatterns{
	{
		intent: IntentPartnerSearch,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(ищу|нужен|найти|подобрать|помогите найти)\s+(строителя|подрядчика|производителя|специалиста)`),
			regexp.MustCompile(`(строитель|подрядчик|производитель|мастер)\s+(для|на)\s+`),
			regexp.MustCompile(`(хочу|планирую|собираюсь)\s+(строить|построить|сделать|создать)`),
			regexp.MustCompile(`(порекомендуйте|посоветуйте)\s+(строителя|подрядчика)`),
		},
	},
	{
		intent: IntentInfoQuery,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(сколько|стоимость|цена)\s+(стоит|строительства|строить)`),
			regexp.MustCompile(`(информация|консультация|расчет)\s+(по|о)`),
			regexp.MustCompile(`(как|какой|что)\s+(лучше|дешевле|надежнее)`),
			regexp.MustCompile(`(сроки|время)\s+(строительства|реализации)`),
		},
	},
	{
		intent: IntentConnectionRequest,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(связаться|связь|контакт|созвониться)\s+с`),
			regexp.MustCompile(`(позвонить|написать)\s+(мне|нам)`),
			regexp.MustCompile(`(обсудить|поговорить)\s+(детали|проект)`),
		},
	},
}

var strongIndicators = map[Intent][]string{
	IntentPartnerSearch:     {"срочно", "нужен", "ищу", "подрядчик"},
	IntentInfoQuery:         {"сколько", "стоимость", "информация", "консультация"},
	IntentConnectionRequest: {"связаться", "контакт", "телефон", "звоните"},
}

// DefaultIntent returns the intent assumed for a role when no pattern matches.
func DefaultIntent(role UserRole) Intent {
	switch role {
	case RoleCustomer:
		return IntentPartnerSearch
	case RoleContractor, RoleProducer:
		return IntentConnectionRequest
	default:
		return IntentInfoQuery
	}
}

// ClassifyIntent determines the goal of a message. Pattern groups are tried in
// a fixed order; a strong indicator for the detected intent adds a boost.
func ClassifyIntent(message string, role UserRole) IntentResult {
	text := strings.ToLower(message)
	result := IntentResult{
		Intent:     DefaultIntent(role),
		Confidence: baseConfidence,
		UserRole:   role,
	}

	for _, group := range intentGroups {
		if p := firstMatch(text, group.patterns); p != "" {
			result.Intent = group.intent
			result.Confidence = matchedConfidence
			result.MatchedPattern = p
			break
		}
	}

	for _, word := range strongIndicators[result.Intent] {
		if strings.Contains(text, word) {
			result.Confidence = math.Min(result.Confidence+indicatorBoost, maxIntentConfidence)
			break
		}
	}

	result.Confidence = round2(result.Confidence)
	return result
}

func firstMatch(text string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		if re.MatchString(text) {
			return re.String()
		}
	}
	return ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

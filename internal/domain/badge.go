package domain

import (
	"fmt"
	"strings"
)

const (
	goldMinPhotos   = 3
	silverMinPhotos = 2
)

// SuggestBadge derives the advisory trust tier from evidence coverage and
// photo count. Tiers are checked from Gold down and the first match wins.
// The result depends only on the inputs.
func SuggestBadge(evidence []Evidence, photoCount int) BadgeSuggestion {
	if photoCount < 0 {
		photoCount = 0
	}
	hasDeed, hasSurvey, hasRates := evidenceCoverage(evidence)

	if hasDeed && hasSurvey && hasRates && photoCount >= goldMinPhotos {
		return BadgeSuggestion{
			Badge:  BadgeGold,
			Reason: fmt.Sprintf("Title deed, survey map and rate clearance provided with %s.", photos(photoCount)),
		}
	}

	if (hasDeed || hasSurvey) && photoCount >= silverMinPhotos {
		missing := make([]string, 0, 4)
		if !hasDeed {
			missing = append(missing, "a title deed")
		}
		if !hasSurvey {
			missing = append(missing, "a survey map")
		}
		if !hasRates {
			missing = append(missing, "a rate clearance")
		}
		if photoCount < goldMinPhotos {
			missing = append(missing, fmt.Sprintf("%d more photo(s)", goldMinPhotos-photoCount))
		}
		return BadgeSuggestion{
			Badge:  BadgeSilver,
			Reason: fmt.Sprintf("%s provided with %s. For Gold add %s.", ownershipDocs(hasDeed, hasSurvey), photos(photoCount), joinList(missing)),
		}
	}

	if len(evidence) > 0 {
		missing := make([]string, 0, 2)
		if !hasDeed && !hasSurvey {
			missing = append(missing, "a title deed or survey map")
		}
		if photoCount < silverMinPhotos {
			missing = append(missing, fmt.Sprintf("%d more photo(s)", silverMinPhotos-photoCount))
		}
		return BadgeSuggestion{
			Badge:  BadgeBronze,
			Reason: fmt.Sprintf("%d evidence document(s) provided. For Silver add %s.", len(evidence), joinList(missing)),
		}
	}

	return BadgeSuggestion{
		Badge:  BadgeNone,
		Reason: "No evidence documents provided.",
	}
}

func evidenceCoverage(evidence []Evidence) (deed, survey, rates bool) {
	for _, e := range evidence {
		switch CanonicalEvidenceType(string(e.Type)) {
		case EvidenceTitleDeed:
			deed = true
		case EvidenceSurveyMap:
			survey = true
		case EvidenceRateClearance:
			rates = true
		}
	}
	return deed, survey, rates
}

func ownershipDocs(deed, survey bool) string {
	switch {
	case deed && survey:
		return "Title deed and survey map"
	case deed:
		return "Title deed"
	default:
		return "Survey map"
	}
}

func photos(n int) string {
	if n == 1 {
		return "1 photo"
	}
	return fmt.Sprintf("%d photos", n)
}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

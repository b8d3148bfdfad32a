package domain

import (
	"fmt"
	"strings"
)

// ListingStatus is the review lifecycle state of a listing.
type ListingStatus string

const (
	StatusPending  ListingStatus = "pending"
	StatusApproved ListingStatus = "approved"
	StatusRejected ListingStatus = "rejected"
)

// ParseListingStatus accepts the stored or user supplied form of a status.
func ParseListingStatus(value string) (ListingStatus, error) {
	switch ListingStatus(strings.ToLower(strings.TrimSpace(value))) {
	case StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	}
	return "", NewValidationError("status", fmt.Sprintf("invalid listing status: %q", value))
}

func (s ListingStatus) String() string {
	return string(s)
}

// Badge is a trust tier. The zero value is not valid; use BadgeNone.
type Badge string

const (
	BadgeGold   Badge = "Gold"
	BadgeSilver Badge = "Silver"
	BadgeBronze Badge = "Bronze"
	BadgeNone   Badge = "None"
)

// ParseBadge is case-insensitive. An empty value reads as BadgeNone.
func ParseBadge(value string) (Badge, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "gold":
		return BadgeGold, nil
	case "silver":
		return BadgeSilver, nil
	case "bronze":
		return BadgeBronze, nil
	case "none", "":
		return BadgeNone, nil
	}
	return "", NewValidationError("badge", fmt.Sprintf("invalid badge: %q", value))
}

func (b Badge) String() string {
	return string(b)
}

// BadgeList is a de-duplicated set of badges preserving input order.
type BadgeList []Badge

func NewBadgeList(values []string) (BadgeList, error) {
	if len(values) == 0 {
		return nil, nil
	}
	result := make([]Badge, 0, len(values))
	seen := make(map[Badge]struct{})
	for _, raw := range values {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		badge, err := ParseBadge(raw)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[badge]; ok {
			continue
		}
		seen[badge] = struct{}{}
		result = append(result, badge)
	}
	return BadgeList(result), nil
}

func (l BadgeList) Strings() []string {
	result := make([]string, 0, len(l))
	for _, v := range l {
		result = append(result, string(v))
	}
	return result
}

func (l BadgeList) Contains(b Badge) bool {
	for _, v := range l {
		if v == b {
			return true
		}
	}
	return false
}

// Role is the principal's role as asserted by the identity provider.
type Role string

const (
	RoleBuyer  Role = "BUYER"
	RoleSeller Role = "SELLER"
	RoleAdmin  Role = "ADMIN"
)

func ParseRole(value string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(value))) {
	case RoleBuyer:
		return RoleBuyer, nil
	case RoleSeller:
		return RoleSeller, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", NewValidationError("role", fmt.Sprintf("invalid role: %q", value))
}

// EvidenceType classifies an evidence document.
type EvidenceType string

const (
	EvidenceTitleDeed     EvidenceType = "title_deed"
	EvidenceSurveyMap     EvidenceType = "survey_map"
	EvidenceRateClearance EvidenceType = "rate_clearance"
	EvidenceOther         EvidenceType = "other"
)

// CanonicalEvidenceType folds the labels sellers and older records use
// onto the canonical evidence types. Unknown labels become EvidenceOther.
func CanonicalEvidenceType(input string) EvidenceType {
	lower := strings.ToLower(strings.TrimSpace(input))
	lower = strings.NewReplacer("-", "_", " ", "_").Replace(lower)
	switch lower {
	case "title_deed", "deed", "title", "titledeed", "land_title", "certificate_of_title", "lease_certificate":
		return EvidenceTitleDeed
	case "survey_map", "survey", "surveymap", "map", "beacon_certificate", "mutation_form", "deed_plan":
		return EvidenceSurveyMap
	case "rate_clearance", "rates_clearance", "land_rates", "rates", "rate_clearance_certificate", "land_rate_clearance":
		return EvidenceRateClearance
	}
	return EvidenceOther
}

func (t EvidenceType) String() string {
	return string(t)
}

// ConversationStatus tracks whether a buyer/seller thread got a reply.
type ConversationStatus string

const (
	ConversationNew       ConversationStatus = "new"
	ConversationResponded ConversationStatus = "responded"
	ConversationClosed    ConversationStatus = "closed"
)

func ParseConversationStatus(value string) (ConversationStatus, error) {
	switch ConversationStatus(strings.ToLower(strings.TrimSpace(value))) {
	case ConversationNew:
		return ConversationNew, nil
	case ConversationResponded:
		return ConversationResponded, nil
	case ConversationClosed:
		return ConversationClosed, nil
	}
	return "", NewValidationError("status", fmt.Sprintf("invalid conversation status: %q", value))
}

package domain

import "time"

// IssueStatus enumerates lifecycle states for IT issues.
type IssueStatus string

const (
	IssueStatusOpen       IssueStatus = "OPEN"
	IssueStatusInProgress IssueStatus = "IN_PROGRESS"
	IssueStatusResolved   IssueStatus = "RESOLVED"
)

// IssueCategory enumerates the banking systems an issue can be filed against.
type IssueCategory string

const (
	CategoryInternetBanking IssueCategory = "INTERNET_BANKING"
	CategoryMobileBanking   IssueCategory = "MOBILE_BANKING"
	CategoryBrNet           IssueCategory = "BR_NET"
	CategoryNetwork         IssueCategory = "NETWORK"
	CategoryHardware        IssueCategory = "HARDWARE"
	CategoryOther           IssueCategory = "OTHER"
)

// IssuePriority enumerates urgency.
type IssuePriority string

const (
	PriorityLow    IssuePriority = "LOW"
	PriorityMedium IssuePriority = "MEDIUM"
	PriorityHigh   IssuePriority = "HIGH"
)

// LoggingMethod records how the issue reached the desk.
type LoggingMethod string

const (
	MethodEmail LoggingMethod = "EMAIL"
	MethodCall  LoggingMethod = "CALL"
)

// Categories lists all issue categories.
func Categories() []IssueCategory {
	return []IssueCategory{
		CategoryInternetBanking,
		CategoryMobileBanking,
		CategoryBrNet,
		CategoryNetwork,
		CategoryHardware,
		CategoryOther,
	}
}

// Priorities lists all issue priorities.
func Priorities() []IssuePriority {
	return []IssuePriority{PriorityLow, PriorityMedium, PriorityHigh}
}

// LoggingMethods lists all logging methods.
func LoggingMethods() []LoggingMethod {
	return []LoggingMethod{MethodEmail, MethodCall}
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c IssueCategory) bool {
	for _, known := range Categories() {
		if known == c {
			return true
		}
	}
	return false
}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p IssuePriority) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// ValidLoggingMethod reports whether m is a known logging method.
func ValidLoggingMethod(m LoggingMethod) bool {
	return m == MethodEmail || m == MethodCall
}

// Issue is the aggregate for a reported IT problem. Content fields are
// editable by the owning reporter while the issue is OPEN; status moves
// are the support desk's.
type Issue struct {
	ID             string
	ReporterID     string
	Title          string
	Description    string
	Category       IssueCategory
	Priority       IssuePriority
	Method         LoggingMethod
	AttachmentKey  *string
	Status         IssueStatus
	WorkDone       string
	Recommendation string
	ResolvedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RESOLVED is terminal; OPEN may skip straight to RESOLVED.
var issueTransitions = map[IssueStatus][]IssueStatus{
	IssueStatusOpen:       {IssueStatusInProgress, IssueStatusResolved},
	IssueStatusInProgress: {IssueStatusResolved},
	IssueStatusResolved:   {},
}

// CanTransition reports whether moving current to next is allowed.
func CanTransition(current, next IssueStatus) bool {
	for _, candidate := range issueTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

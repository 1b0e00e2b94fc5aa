package domain

import (
	"strings"
	"time"
)

// StaffRole enumerates account roles. ADMIN doubles as IT support staff.
type StaffRole string

const (
	StaffRoleUser  StaffRole = "USER"
	StaffRoleAdmin StaffRole = "ADMIN"
)

// Branch enumerates bank branches a staff member can belong to.
type Branch string

const (
	BranchWestlands      Branch = "WESTLANDS"
	BranchParklands      Branch = "PARKLANDS"
	BranchKoinange       Branch = "KOINANGE"
	BranchIndustrialArea Branch = "INDUSTRIAL_AREA"
	BranchKisumu         Branch = "KISUMU"
	BranchMombasa        Branch = "MOMBASA"
	BranchEldoret        Branch = "ELDORET"
	BranchHeadquarters   Branch = "HEADQUARTERS"
)

// Branches lists all known branches.
func Branches() []Branch {
	return []Branch{
		BranchWestlands,
		BranchParklands,
		BranchKoinange,
		BranchIndustrialArea,
		BranchKisumu,
		BranchMombasa,
		BranchEldoret,
		BranchHeadquarters,
	}
}

// ValidBranch reports whether b is a known branch.
func ValidBranch(b Branch) bool {
	for _, known := range Branches() {
		if known == b {
			return true
		}
	}
	return false
}

// ValidStaffRole reports whether r is a known role.
func ValidStaffRole(r StaffRole) bool {
	return r == StaffRoleUser || r == StaffRoleAdmin
}

// StaffAccount models a bank staff member using the IT desk.
// Accounts start unverified and become verified only through a
// successful passcode check; they are never hard-deleted.
type StaffAccount struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Role      StaffRole
	Branch    Branch
	Verified  bool
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins first and last name for display and email templates.
func (s *StaffAccount) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// EmailInDomain reports whether email carries the given corporate suffix.
// The comparison is case-insensitive.
func EmailInDomain(email, domain string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(email)), strings.ToLower(domain))
}

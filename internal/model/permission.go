package model

import "strings"

// Permission represents a string code `resource:action[:scope]`.
type Permission string

// SelfScopeSuffix marks permissions that only apply to resources the actor owns.
const SelfScopeSuffix = ":self"

const (
	// PermissionResultsCreate allows entering marks for a student.
	PermissionResultsCreate Permission = "student:results:create"

	// PermissionResultsRead allows viewing any exam result.
	PermissionResultsRead Permission = "student:results:read"

	// PermissionResultsReadSelf allows viewing results of linked students only.
	PermissionResultsReadSelf Permission = "student:results:read:self"

	// PermissionResultsUpdate allows editing marks of any unpublished result.
	PermissionResultsUpdate Permission = "student:results:update"

	// PermissionResultsUpdateSelf allows editing marks the actor entered.
	PermissionResultsUpdateSelf Permission = "student:results:update:self"

	// PermissionResultsSubmit allows submitting any draft for review.
	PermissionResultsSubmit Permission = "student:results:submit"

	// PermissionResultsSubmitSelf allows submitting drafts the actor entered.
	PermissionResultsSubmitSelf Permission = "student:results:submit:self"

	// PermissionResultsApprove allows approving submitted results.
	PermissionResultsApprove Permission = "student:results:approve"

	// PermissionResultsReject allows sending submitted results back to the teacher.
	PermissionResultsReject Permission = "student:results:reject"

	// PermissionResultsPublish allows releasing approved results to students and parents.
	PermissionResultsPublish Permission = "student:results:publish"

	// PermissionResultsReview allows viewing the review queue and live feed.
	PermissionResultsReview Permission = "student:results:review"

	PermissionStudentsRead    Permission = "students:read"
	PermissionStudentsWrite   Permission = "students:write"
	PermissionClassroomsRead  Permission = "classrooms:read"
	PermissionClassroomsWrite Permission = "classrooms:write"
	PermissionSubjectsRead    Permission = "subjects:read"
	PermissionSubjectsWrite   Permission = "subjects:write"
	PermissionExamsRead       Permission = "exams:read"
	PermissionExamsWrite      Permission = "exams:write"
	PermissionSettingsRead    Permission = "settings:read"
	PermissionSettingsWrite   Permission = "settings:write"
	PermissionFeesRead        Permission = "fees:read"
	PermissionFeesWrite       Permission = "fees:write"
	PermissionDashboardRead   Permission = "dashboard:read"
)

// AllPermissions is a slice of all available permissions.
var AllPermissions = []Permission{
	PermissionResultsCreate,
	PermissionResultsRead,
	PermissionResultsReadSelf,
	PermissionResultsUpdate,
	PermissionResultsUpdateSelf,
	PermissionResultsSubmit,
	PermissionResultsSubmitSelf,
	PermissionResultsApprove,
	PermissionResultsReject,
	PermissionResultsPublish,
	PermissionResultsReview,
	PermissionStudentsRead,
	PermissionStudentsWrite,
	PermissionClassroomsRead,
	PermissionClassroomsWrite,
	PermissionSubjectsRead,
	PermissionSubjectsWrite,
	PermissionExamsRead,
	PermissionExamsWrite,
	PermissionSettingsRead,
	PermissionSettingsWrite,
	PermissionFeesRead,
	PermissionFeesWrite,
	PermissionDashboardRead,
}

// IsSelfScoped reports whether the permission carries the `:self` scope.
func (p Permission) IsSelfScoped() bool {
	return strings.HasSuffix(string(p), SelfScopeSuffix)
}

// Self returns the `:self` scoped variant of p.
func (p Permission) Self() Permission {
	if p.IsSelfScoped() {
		return p
	}
	return p + SelfScopeSuffix
}

package rbac

import "github.com/stemsi/schoolhub-backend/internal/model"

// DefaultDocument is the policy shipped with the application.
func DefaultDocument() PolicyDocument {
	staff := []model.Role{model.RoleTeacher, model.RoleHeadTeacher, model.RoleAccounts}

	return PolicyDocument{
		Roles: map[model.Role][]model.Permission{
			model.RoleHeadTeacher: {
				model.PermissionResultsCreate,
				model.PermissionResultsRead,
				model.PermissionResultsUpdateSelf,
				model.PermissionResultsSubmit,
				model.PermissionResultsApprove,
				model.PermissionResultsReject,
				model.PermissionResultsPublish,
				model.PermissionResultsReview,
				model.PermissionStudentsRead,
				model.PermissionClassroomsRead,
				model.PermissionSubjectsRead,
				model.PermissionExamsRead,
				model.PermissionExamsWrite,
				model.PermissionDashboardRead,
			},
			model.RoleTeacher: {
				model.PermissionResultsCreate,
				model.PermissionResultsRead,
				model.PermissionResultsUpdateSelf,
				model.PermissionResultsSubmitSelf,
				model.PermissionStudentsRead,
				model.PermissionClassroomsRead,
				model.PermissionSubjectsRead,
				model.PermissionExamsRead,
				model.PermissionDashboardRead,
			},
			model.RoleAccounts: {
				model.PermissionStudentsRead,
				model.PermissionFeesRead,
				model.PermissionFeesWrite,
				model.PermissionDashboardRead,
			},
			model.RoleParent: {
				model.PermissionResultsReadSelf,
			},
			model.RoleStudent: {
				model.PermissionResultsReadSelf,
			},
		},
		Routes: map[string][]model.Role{
			"/":               {},
			"/login":          {},
			"/dashboard":      staff,
			"/results/entry":  {model.RoleTeacher, model.RoleHeadTeacher},
			"/results/review": {model.RoleHeadTeacher},
			"/results/my":     {model.RoleParent, model.RoleStudent},
			"/students":       staff,
			"/accounts/fees":  {model.RoleAccounts},
			"/admin/*":        {model.RoleAdmin},
		},
	}
}

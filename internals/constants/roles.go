package constants

import (
	"fmt"

	userModel "churchhub_backend/internals/features/users/model"
)

const ErrOnlyAdminsCanAccess = "forbidden - only admins can access %s"

// AdminRoles may use the admin API.
var AdminRoles = []string{userModel.RoleAdmin, userModel.RoleSuperAdmin}

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

// Package permissions checks dotted permission strings with wildcard support.
//
// Permission Format:
//   - "*" - Full access (all permissions)
//   - "resource.*" - All actions on a resource (e.g., "inventory.*")
//   - "resource.action" - Specific action (e.g., "inventory.read")
//   - "resource.subresource.action" - Nested permission (e.g., "inventory.alerts.manage")
package permissions

import (
	"strings"
)

// Inventory permissions
const (
	InventoryRead         = "inventory.read"
	InventoryWrite        = "inventory.write"
	InventoryAdjust       = "inventory.adjust"
	InventoryAlertsManage = "inventory.alerts.manage"
)

var rolePermissions = map[string][]string{
	"admin":   {"*"},
	"manager": {"inventory.*"},
	"kitchen": {InventoryRead, InventoryAdjust},
	"staff":   {InventoryRead},
}

// ForRole returns the default permissions of a back-office role
func ForRole(role string) []string {
	return rolePermissions[strings.ToLower(role)]
}

// HasPermission checks if the user's permissions include the required permission.
// Supports wildcard matching:
//   - "*" matches everything
//   - "inventory.*" matches "inventory.read", "inventory.alerts.manage", etc.
//   - Exact match for specific permissions
func HasPermission(userPerms []string, required string) bool {
	if required == "" {
		return true
	}

	for _, p := range userPerms {
		if p == "*" || p == required {
			return true
		}
		if strings.HasSuffix(p, ".*") {
			prefix := strings.TrimSuffix(p, ".*")
			if strings.HasPrefix(required, prefix+".") {
				return true
			}
		}
	}
	return false
}

// HasAnyPermission checks if the user has any of the required permissions.
func HasAnyPermission(userPerms []string, required []string) bool {
	for _, req := range required {
		if HasPermission(userPerms, req) {
			return true
		}
	}
	return false
}

// Package authz decides, per role and capability, whether an action is
// allowed. Permission documents are flat capability->bool maps; lookups
// fail closed and unknown capability keys are rejected at write time.
package authz

import (
	"fmt"
	"sort"

	"github.com/nurpe/fieldserv-crm/internal/model"
)

type Capability string

const (
	CapBidCreate     Capability = "bid_create"
	CapBidEdit       Capability = "bid_edit"
	CapBidDelete     Capability = "bid_delete"
	CapBidTypeCreate Capability = "bid_type_create"
	CapBidTypeEdit   Capability = "bid_type_edit"

	CapEquipmentCreate Capability = "equipment_create"
	CapEquipmentEdit   Capability = "equipment_edit"
	CapEquipmentDelete Capability = "equipment_delete"
	CapEquipmentAssign Capability = "equipment_assign"
	CapEquipmentImport Capability = "equipment_import"
	CapEquipmentExport Capability = "equipment_export"

	CapRoleCreate Capability = "role_create"
	CapRoleEdit   Capability = "role_edit"
	CapRoleDelete Capability = "role_delete"

	CapBackupRestore Capability = "backup_restore"

	// UI-visibility capabilities: gate feature surfacing, not mutation.
	CapSettingsBidTypesButton Capability = "settings_bid_types_button"
	CapSettingsRolesButton    Capability = "settings_roles_button"
	CapSettingsUsersButton    Capability = "settings_users_button"
	CapTabBids                Capability = "tab_bids"
	CapTabEquipment           Capability = "tab_equipment"
	CapTabClients             Capability = "tab_clients"
	CapTabReports             Capability = "tab_reports"
)

var knownCapabilities = map[Capability]struct{}{
	CapBidCreate:              {},
	CapBidEdit:                {},
	CapBidDelete:              {},
	CapBidTypeCreate:          {},
	CapBidTypeEdit:            {},
	CapEquipmentCreate:        {},
	CapEquipmentEdit:          {},
	CapEquipmentDelete:        {},
	CapEquipmentAssign:        {},
	CapEquipmentImport:        {},
	CapEquipmentExport:        {},
	CapRoleCreate:             {},
	CapRoleEdit:               {},
	CapRoleDelete:             {},
	CapBackupRestore:          {},
	CapSettingsBidTypesButton: {},
	CapSettingsRolesButton:    {},
	CapSettingsUsersButton:    {},
	CapTabBids:                {},
	CapTabEquipment:           {},
	CapTabClients:             {},
	CapTabReports:             {},
}

// Authorize reports whether the role holds the capability. Unknown keys and
// nil roles are denied.
func Authorize(role *model.Role, capability Capability) bool {
	if role == nil {
		return false
	}
	allowed, ok := role.Permissions[string(capability)]
	return ok && allowed
}

// ParsePermissions validates a raw permission document against the closed
// capability list, so a typo fails at role save time instead of turning
// into a silent deny at lookup time.
func ParsePermissions(raw map[string]bool) (map[string]bool, error) {
	if raw == nil {
		return map[string]bool{}, nil
	}
	var unknown []string
	for key := range raw {
		if _, ok := knownCapabilities[Capability(key)]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown capabilities: %v", unknown)
	}
	perms := make(map[string]bool, len(raw))
	for key, value := range raw {
		perms[key] = value
	}
	return perms, nil
}

// Capabilities returns the closed capability list in a stable order.
func Capabilities() []Capability {
	caps := make([]Capability, 0, len(knownCapabilities))
	for capability := range knownCapabilities {
		caps = append(caps, capability)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}

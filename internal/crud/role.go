package crud

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Role selects which of the five CRUD operations a view handler performs.
type Role int

const (
	RoleList Role = iota
	RoleCreate
	RoleDetail
	RoleUpdate
	RoleDelete
)

// Roles lists every role in URL registration order.
var Roles = []Role{RoleList, RoleCreate, RoleDetail, RoleUpdate, RoleDelete}

// Action names the request handler a role dispatches an HTTP method to.
type Action string

const (
	ActionList            Action = "list"
	ActionDetail          Action = "detail"
	ActionShowForm        Action = "show_form"
	ActionProcessForm     Action = "process_form"
	ActionConfirmDelete   Action = "confirm_delete"
	ActionProcessDeletion Action = "process_deletion"
)

func (r Role) String() string {
	switch r {
	case RoleList:
		return "list"
	case RoleCreate:
		return "create"
	case RoleDetail:
		return "detail"
	case RoleUpdate:
		return "update"
	case RoleDelete:
		return "delete"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Handlers maps the HTTP methods a role accepts to the action serving each.
func (r Role) Handlers() map[string]Action {
	switch r {
	case RoleList:
		return map[string]Action{fiber.MethodGet: ActionList}
	case RoleDetail:
		return map[string]Action{fiber.MethodGet: ActionDetail}
	case RoleCreate, RoleUpdate:
		return map[string]Action{
			fiber.MethodGet:  ActionShowForm,
			fiber.MethodPost: ActionProcessForm,
		}
	case RoleDelete:
		return map[string]Action{
			fiber.MethodGet:  ActionConfirmDelete,
			fiber.MethodPost: ActionProcessDeletion,
		}
	}
	return nil
}

// TemplateNameSuffix is appended to generated template names, e.g. "bookmark_list".
func (r Role) TemplateNameSuffix() string {
	switch r {
	case RoleList:
		return "_list"
	case RoleDetail:
		return "_detail"
	case RoleCreate, RoleUpdate:
		return "_form"
	case RoleDelete:
		return "_confirm_delete"
	}
	return ""
}

// URLName is the route name for the role, e.g. "bookmark-detail".
func (r Role) URLName(base string) string {
	return base + "-" + r.String()
}

// URLPattern is the route path for the role. lookup is the route parameter
// segment identifying one object, e.g. ":pk<int>".
func (r Role) URLPattern(base, lookup string) string {
	switch r {
	case RoleList:
		return "/" + base + "/"
	case RoleCreate:
		return "/" + base + "/new/"
	case RoleDetail:
		return "/" + base + "/" + lookup + "/"
	case RoleUpdate:
		return "/" + base + "/" + lookup + "/edit/"
	case RoleDelete:
		return "/" + base + "/" + lookup + "/delete/"
	}
	return ""
}

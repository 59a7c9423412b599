package session

// View names a role-scoped screen of the client.
type View string

const (
	// ViewLogin is the unauthenticated entry view.
	ViewLogin View = "login"
	// ViewRequest is where employees create and track passes.
	ViewRequest View = "request"
	// ViewApprove is the approver (and admin) panel.
	ViewApprove View = "approve"
	// ViewGuard is the gate log.
	ViewGuard View = "guard"
)

var roleRoutes = map[Role]View{
	RoleEmployee: ViewRequest,
	RoleApprover: ViewApprove,
	RoleGuard:    ViewGuard,
	RoleAdmin:    ViewApprove,
}

// RouteFor returns the default view of role. Unknown roles go to [ViewLogin].
func RouteFor(role Role) View {
	if v, ok := roleRoutes[role]; ok {
		return v
	}
	return ViewLogin
}

var viewRoles = map[View][]Role{
	ViewRequest: {RoleEmployee},
	ViewApprove: {RoleApprover, RoleAdmin},
	ViewGuard:   {RoleGuard, RoleAdmin},
}

// ViewRoles returns the roles admitted to view. ViewLogin and unknown views
// return nil.
func ViewRoles(view View) []Role {
	roles := viewRoles[view]
	if roles == nil {
		return nil
	}
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// Navigator switches the client to another view.
type Navigator interface {
	GoTo(view View)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(View)

// GoTo calls f(view).
func (f NavigatorFunc) GoTo(view View) {
	f(view)
}

type noopNavigator struct{}

func (noopNavigator) GoTo(View) {}

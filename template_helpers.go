package portal

import "github.com/gofiber/fiber/v2"

// TemplateUserKey is the view-context key carrying the signed-in identity.
var TemplateUserKey = "current_user"

// ViewContext merges the request's session state into the page data handed
// to the template engine. Every render goes through it so the layout can
// always draw the navigation chrome for the current role.
//
// Keys it injects:
//
//	current_user  the *Identity, or nil for anonymous pages
//	role          the derived role string
//	nav_links     []NavLink in display order for the role
//	is_admin      role convenience flags for template branches
//	is_staff
//	is_clinic
func ViewContext(c *fiber.Ctx, data fiber.Map) fiber.Map {
	if data == nil {
		data = fiber.Map{}
	}

	session := SessionFromCtx(c)
	role := session.Role()

	if session.Authenticated() {
		data[TemplateUserKey] = session.Identity
	} else {
		data[TemplateUserKey] = nil
	}
	data["role"] = string(role)
	data["nav_links"] = NavLinks(role)
	data["is_admin"] = role == RoleAdmin
	data["is_staff"] = role == RoleStaff
	data["is_clinic"] = role == RoleClinicUser

	return data
}

package portal

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"

	"github.com/medisys/secure-portal/client"
)

// assignableGroups are the pool groups an admin can place accounts in. An
// empty selection leaves the account as a plain clinic user.
var assignableGroups = []string{
	string(RoleAdmin),
	string(RoleStaff),
	string(RoleClinicUser),
}

// ManageUsersShow renders the account directory.
func (a *Controller) ManageUsersShow(c *fiber.Ctx) error {
	data := fiber.Map{
		"users":      []client.SystemUser{},
		"groups":     assignableGroups,
		"manage_url": RouteManageUsers,
	}

	users, err := a.api(c).Users(c.Context())
	if err != nil {
		a.Logger.Error("user listing failed", "error", err)
		data["error"] = client.ErrorMessage(err)
		return c.Render(a.Views.ManageUsers, ViewContext(c, data))
	}

	data["users"] = users
	return c.Render(a.Views.ManageUsers, ViewContext(c, data))
}

// CreateUserRequest is the new-account form payload.
type CreateUserRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Group    string `form:"group" json:"group"`
}

// Validate will run validation rules
func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 0)),
		validation.Field(&r.Group, validation.Required, validation.In(toAny(assignableGroups)...)),
	)
}

// UserCreate provisions an account and reports the outcome as JSON; the
// page refetches the directory on success.
func (a *Controller) UserCreate(c *fiber.Ctx) error {
	payload := new(CreateUserRequest)

	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid payload",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	ack, err := a.api(c).CreateUser(c.Context(), client.CreateUserPayload{
		Email:    payload.Email,
		Password: payload.Password,
		Group:    payload.Group,
	})
	if err != nil {
		a.Logger.Error("user create failed", "email", payload.Email, "error", err)
		return c.Status(apiErrorStatus(err)).JSON(fiber.Map{
			"error": client.ErrorMessage(err),
		})
	}

	a.Logger.Info("user created", "email", payload.Email, "group", payload.Group)

	return c.JSON(fiber.Map{
		"success": true,
		"message": ack.Message,
	})
}

// DeleteUserRequest identifies the account to remove.
type DeleteUserRequest struct {
	Username string `form:"username" json:"username"`
}

// Validate will run validation rules
func (r DeleteUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
	)
}

// UserDelete removes an account. The page confirms before calling and
// refetches the directory afterwards.
func (a *Controller) UserDelete(c *fiber.Ctx) error {
	payload := new(DeleteUserRequest)

	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid payload",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	session := SessionFromCtx(c)
	if session.Identity != nil && session.Identity.Email == payload.Username {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "you cannot delete your own account",
		})
	}

	ack, err := a.api(c).DeleteUser(c.Context(), client.DeleteUserPayload{
		Username: payload.Username,
	})
	if err != nil {
		a.Logger.Error("user delete failed", "username", payload.Username, "error", err)
		return c.Status(apiErrorStatus(err)).JSON(fiber.Map{
			"error": client.ErrorMessage(err),
		})
	}

	a.Logger.Info("user deleted", "username", payload.Username)

	return c.JSON(fiber.Map{
		"success": true,
		"message": ack.Message,
	})
}

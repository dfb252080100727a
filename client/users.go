package client

import (
	"context"
	"net/http"
)

// SystemUser is a normalized directory entry. The backend's user listing
// is shaped by whichever Lambda produced it, so the raw rows are coerced
// through NormalizeUsers before anyone sees them.
type SystemUser struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// CreateUserPayload is the body for provisioning a new account.
type CreateUserPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Group    string `json:"group"`
}

// DeleteUserPayload identifies the account to remove. The pool uses email
// addresses as usernames.
type DeleteUserPayload struct {
	Username string `json:"username"`
}

// Users lists every account in the directory, normalized.
func (c *Client) Users(ctx context.Context) ([]SystemUser, error) {
	var raw any
	if err := c.request(ctx, http.MethodGet, "/all-users", nil, &raw); err != nil {
		return nil, err
	}
	return NormalizeUsers(raw), nil
}

// CreateUser provisions an account in the given group.
func (c *Client) CreateUser(ctx context.Context, payload CreateUserPayload) (*ActionResponse, error) {
	var ack ActionResponse
	if err := c.request(ctx, http.MethodPost, "/create-users", &payload, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// DeleteUser removes the account named by payload.Username.
func (c *Client) DeleteUser(ctx context.Context, payload DeleteUserPayload) (*ActionResponse, error) {
	var ack ActionResponse
	if err := c.request(ctx, http.MethodDelete, "/delete-users", &payload, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// NormalizeUsers coerces the directory listing into SystemUser values.
// Accepted field spellings per row: Email, email, Username, username for
// the address; Groups or roles for the role list, where the value may be
// a single string or an array. Non-list inputs and non-object rows yield
// nothing.
func NormalizeUsers(raw any) []SystemUser {
	rows, ok := raw.([]any)
	if !ok {
		return []SystemUser{}
	}

	users := make([]SystemUser, 0, len(rows))
	for _, row := range rows {
		fields, ok := row.(map[string]any)
		if !ok {
			continue
		}
		users = append(users, SystemUser{
			Email: firstString(fields, "Email", "email", "Username", "username"),
			Roles: stringList(coalesce(fields, "Groups", "roles")),
		})
	}
	return users
}

func firstString(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := fields[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func coalesce(fields map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := fields[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringList(raw any) []string {
	switch v := raw.(type) {
	case nil:
		return []string{}
	case string:
		if v == "" {
			return []string{}
		}
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/idilsaglam/tada/internal/forms"
	"github.com/idilsaglam/tada/internal/model"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (c *Client) Signup(ctx context.Context, name, email, password string) (model.AuthResult, error) {
	return c.auth(ctx, "signup", "/auth/signup", signupRequest{Name: name, Email: email, Password: password})
}

func (c *Client) Login(ctx context.Context, email, password string) (model.AuthResult, error) {
	return c.auth(ctx, "login", "/auth/login", loginRequest{Email: email, Password: password})
}

// Reset sets a new password using a reset token and signs the user in.
func (c *Client) Reset(ctx context.Context, token, password string) (model.AuthResult, error) {
	return c.auth(ctx, "reset", "/auth/reset", resetRequest{Token: token, Password: password})
}

// Forgot requests a reset. Dev servers answer with the reset token itself,
// production servers with a confirmation message.
func (c *Client) Forgot(ctx context.Context, email string) (model.ForgotResult, error) {
	const op = "forgot"
	b, err := c.do(ctx, op, http.MethodPost, "/auth/forgot", forgotRequest{Email: email})
	if err != nil {
		return model.ForgotResult{}, err
	}
	var res model.ForgotResult
	if err := json.Unmarshal(b, &res); err != nil {
		return model.ForgotResult{}, &model.SchemaError{Op: op, Err: err}
	}
	if !res.HasResetToken() && res.Message == "" {
		return model.ForgotResult{}, &model.SchemaError{Op: op, Err: errors.New("neither resetToken nor message present")}
	}
	return res, nil
}

func (c *Client) auth(ctx context.Context, op, path string, in any) (model.AuthResult, error) {
	b, err := c.do(ctx, op, http.MethodPost, path, in)
	if err != nil {
		return model.AuthResult{}, err
	}
	var res model.AuthResult
	if err := json.Unmarshal(b, &res); err != nil {
		return model.AuthResult{}, &model.SchemaError{Op: op, Err: err}
	}
	if err := forms.Struct(res); err != nil {
		return model.AuthResult{}, &model.SchemaError{Op: op, Err: err}
	}
	return res, nil
}

package apiclient

import (
	"context"
	"net/http"

	"github.com/Domenick1991/legalinmo/internal/domain"
)

type LoginResult struct {
	Token string
	User  *domain.User
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for an access token. A 2xx answer without a
// token is reported as *APIError with MsgMissingToken.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	resp, err := c.do(ctx, request{
		operation: "login",
		method:    http.MethodPost,
		path:      "/login",
		body:      loginRequest{Email: email, Password: password},
		fallback:  MsgLoginFailed,
	})
	if err != nil {
		return nil, err
	}

	obj, err := decodeObject(resp.body)
	if err != nil {
		return nil, &APIError{Operation: "login", Status: resp.status, Message: MsgMissingToken}
	}
	token := obj.str(tokenPaths...)
	if token == "" {
		return nil, &APIError{Operation: "login", Status: resp.status, Message: MsgMissingToken}
	}

	result := &LoginResult{Token: token}
	if u := obj.obj(loginUserPaths...); u != nil {
		user := decodeUser(u, c.loc)
		result.User = &user
	}
	return result, nil
}

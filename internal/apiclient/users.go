package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Domenick1991/legalinmo/internal/domain"
)

// CustomerRole is the upstream role id for customer accounts.
const CustomerRole = 5

func (c *Client) ListUsers(ctx context.Context, token string) ([]domain.User, error) {
	resp, err := c.do(ctx, request{
		operation: "list_users",
		method:    http.MethodGet,
		path:      fmt.Sprintf("/users?role=%d", CustomerRole),
		token:     token,
		fallback:  MsgUsersList,
	})
	if err != nil {
		return nil, err
	}

	items, err := decodeList(resp.body)
	if err != nil {
		return nil, fmt.Errorf("list_users: %w", err)
	}
	users := make([]domain.User, 0, len(items))
	for _, item := range items {
		users = append(users, decodeUser(item, c.loc))
	}
	return users, nil
}

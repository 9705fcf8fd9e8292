package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Domenick1991/legalinmo/internal/domain"
)

// ServiceInput is the body of service create and update calls. A nil price is sent as null.
type ServiceInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
}

func (c *Client) ListServices(ctx context.Context, token string) ([]domain.Service, error) {
	resp, err := c.do(ctx, request{
		operation: "list_services",
		method:    http.MethodGet,
		path:      "/services",
		token:     token,
		fallback:  MsgServicesList,
	})
	if err != nil {
		return nil, err
	}

	items, err := decodeList(resp.body)
	if err != nil {
		return nil, fmt.Errorf("list_services: %w", err)
	}
	services := make([]domain.Service, 0, len(items))
	for _, item := range items {
		services = append(services, decodeService(item))
	}
	return services, nil
}

func (c *Client) CreateService(ctx context.Context, token string, in ServiceInput) (*domain.Service, error) {
	return c.saveService(ctx, token, http.MethodPost, "/services", "create_service", in)
}

func (c *Client) UpdateService(ctx context.Context, token, id string, in ServiceInput) (*domain.Service, error) {
	return c.saveService(ctx, token, http.MethodPut, "/services/"+url.PathEscape(id), "update_service", in)
}

func (c *Client) saveService(ctx context.Context, token, method, path, op string, in ServiceInput) (*domain.Service, error) {
	resp, err := c.do(ctx, request{
		operation: op,
		method:    method,
		path:      path,
		token:     token,
		body:      in,
		fallback:  MsgServiceSave,
	})
	if err != nil {
		return nil, err
	}

	// Some deployments answer with an empty body or a bare ack; fall back to the input.
	saved := domain.Service{Name: in.Name, Description: in.Description, Price: in.Price}
	if obj, err := decodeObject(resp.body); err == nil {
		if data := obj.obj("data"); data != nil {
			obj = data
		}
		if decoded := decodeService(obj); decoded.ID != "" || decoded.Name != "" {
			saved = decoded
		}
	}
	return &saved, nil
}

// DeleteService accepts both 204 and a JSON acknowledgement.
func (c *Client) DeleteService(ctx context.Context, token, id string) error {
	_, err := c.do(ctx, request{
		operation: "delete_service",
		method:    http.MethodDelete,
		path:      "/services/" + url.PathEscape(id),
		token:     token,
		fallback:  MsgServiceDelete,
	})
	return err
}

package apiclient

import (
	"context"
	"net/http"
)

// PaymentIntentInput carries the customer data and the card widget's tokenized result.
type PaymentIntentInput struct {
	Email           string  `json:"email"`
	ServiceID       string  `json:"service_id"`
	Name            string  `json:"name"`
	CardToken       string  `json:"mp_token"`
	PaymentMethodID string  `json:"payment_method_id"`
	IssuerID        string  `json:"issuer_id"`
	Installments    int     `json:"installments"`
	Amount          float64 `json:"amount"`
}

type PaymentIntentResult struct {
	TransactionID string
	Status        string
}

func (c *Client) CreatePaymentIntent(ctx context.Context, token string, in PaymentIntentInput) (*PaymentIntentResult, error) {
	if in.Installments <= 0 {
		in.Installments = 1
	}
	resp, err := c.do(ctx, request{
		operation: "create_payment_intent",
		method:    http.MethodPost,
		path:      "/payments/create-intent",
		token:     token,
		body:      in,
		fallback:  MsgPaymentFailed,
	})
	if err != nil {
		return nil, err
	}

	obj, err := decodeObject(resp.body)
	if err != nil {
		return nil, &APIError{Operation: "create_payment_intent", Status: resp.status, Message: MsgPaymentNoTransaction}
	}
	result := &PaymentIntentResult{
		TransactionID: obj.id(transactionIDPaths...),
		Status:        obj.str("status", "data.status"),
	}
	if result.TransactionID == "" {
		return nil, &APIError{Operation: "create_payment_intent", Status: resp.status, Message: MsgPaymentNoTransaction}
	}
	return result, nil
}

package api

import (
	"context"
	"net/http"

	"github.com/lebensmittel/cli/internal/model"
)

// ReceiptFields is the request body for creating or updating a receipt.
type ReceiptFields struct {
	Date        string   `json:"date"`
	TotalAmount float64  `json:"totalAmount"`
	PurchasedBy string   `json:"purchasedBy"`
	Items       []string `json:"items,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
}

// ListReceipts fetches every receipt in the active group.
func (c *Client) ListReceipts(ctx context.Context) ([]model.Receipt, error) {
	var resp struct {
		Count    int             `json:"count"`
		Receipts []model.Receipt `json:"receipts"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/receipts", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Receipts, nil
}

// CreateReceipt creates a receipt and returns the server's copy.
func (c *Client) CreateReceipt(ctx context.Context, fields ReceiptFields) (*model.Receipt, error) {
	var receipt model.Receipt
	if err := c.doJSON(ctx, http.MethodPost, "/receipts", fields, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// UpdateReceipt replaces a receipt's fields and returns the updated receipt.
func (c *Client) UpdateReceipt(ctx context.Context, id string, fields ReceiptFields) (*model.Receipt, error) {
	var receipt model.Receipt
	if err := c.doJSON(ctx, http.MethodPut, "/receipts/"+id, fields, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// DeleteReceipt removes a receipt by id.
func (c *Client) DeleteReceipt(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/receipts/"+id, nil, nil)
}

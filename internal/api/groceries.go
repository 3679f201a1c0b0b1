package api

import (
	"context"
	"net/http"

	"github.com/lebensmittel/cli/internal/model"
)

// GroceryItemFields is the request body for creating or updating a grocery
// item. The server assigns and owns the item id.
type GroceryItemFields struct {
	Name              string `json:"name"`
	Category          string `json:"category"`
	IsNeeded          bool   `json:"isNeeded"`
	IsShoppingChecked bool   `json:"isShoppingChecked"`
}

// ListGroceryItems fetches every grocery item in the active group.
func (c *Client) ListGroceryItems(ctx context.Context) ([]model.GroceryItem, error) {
	var resp struct {
		Count        int                 `json:"count"`
		GroceryItems []model.GroceryItem `json:"groceryItems"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/grocery-items", nil, &resp); err != nil {
		return nil, err
	}
	return resp.GroceryItems, nil
}

// CreateGroceryItem creates an item and returns the server's copy of it.
func (c *Client) CreateGroceryItem(ctx context.Context, fields GroceryItemFields) (*model.GroceryItem, error) {
	var item model.GroceryItem
	if err := c.doJSON(ctx, http.MethodPost, "/grocery-items", fields, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateGroceryItem replaces an item's fields and returns the updated item.
func (c *Client) UpdateGroceryItem(ctx context.Context, id string, fields GroceryItemFields) (*model.GroceryItem, error) {
	var item model.GroceryItem
	if err := c.doJSON(ctx, http.MethodPut, "/grocery-items/"+id, fields, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteGroceryItem removes an item by id.
func (c *Client) DeleteGroceryItem(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/grocery-items/"+id, nil, nil)
}

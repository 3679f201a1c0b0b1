package api

import (
	"context"
	"net/http"

	"github.com/lebensmittel/cli/internal/model"
)

// MealPlanFields is the request body for creating or updating a meal plan.
// Date is YYYY-MM-DD.
type MealPlanFields struct {
	Date            string `json:"date"`
	MealDescription string `json:"mealDescription"`
}

// ListMealPlans fetches every meal plan in the active group.
func (c *Client) ListMealPlans(ctx context.Context) ([]model.MealPlan, error) {
	var resp struct {
		Count     int              `json:"count"`
		MealPlans []model.MealPlan `json:"mealPlans"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/meal-plans", nil, &resp); err != nil {
		return nil, err
	}
	return resp.MealPlans, nil
}

// CreateMealPlan creates a meal plan and returns the server's copy.
func (c *Client) CreateMealPlan(ctx context.Context, fields MealPlanFields) (*model.MealPlan, error) {
	var plan model.MealPlan
	if err := c.doJSON(ctx, http.MethodPost, "/meal-plans", fields, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// UpdateMealPlan replaces a meal plan's fields and returns the updated plan.
func (c *Client) UpdateMealPlan(ctx context.Context, id string, fields MealPlanFields) (*model.MealPlan, error) {
	var plan model.MealPlan
	if err := c.doJSON(ctx, http.MethodPut, "/meal-plans/"+id, fields, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// DeleteMealPlan removes a meal plan by id.
func (c *Client) DeleteMealPlan(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/meal-plans/"+id, nil, nil)
}

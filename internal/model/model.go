package model

// User is the account record returned by the auth endpoints.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// Group is a household that scopes grocery, meal and receipt records.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GroceryItem lives on the shared grocery list. IsNeeded marks items still
// to buy, IsShoppingChecked marks items ticked off in the shopping view.
type GroceryItem struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Category          string `json:"category"`
	IsNeeded          bool   `json:"isNeeded"`
	IsShoppingChecked bool   `json:"isShoppingChecked"`
}

// MealPlan assigns a meal description to a date. Dates travel on the wire
// as YYYY-MM-DD strings, which is how the server serializes them.
type MealPlan struct {
	ID              string `json:"id"`
	Date            string `json:"date"`
	MealDescription string `json:"mealDescription"`
}

// Receipt records a shopping trip. Notes is nullable on the server side.
type Receipt struct {
	ID          string   `json:"id"`
	Date        string   `json:"date"`
	TotalAmount float64  `json:"totalAmount"`
	PurchasedBy string   `json:"purchasedBy"`
	Items       []string `json:"items"`
	Notes       *string  `json:"notes"`
}

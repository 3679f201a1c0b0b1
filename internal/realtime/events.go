package realtime

// Event names fanned out by the server over the /ws channel.
const (
	EventGroceryItemCreated = "grocery_item_created"
	EventGroceryItemUpdated = "grocery_item_updated"
	EventGroceryItemDeleted = "grocery_item_deleted"

	EventMealPlanCreated = "meal_plan_created"
	EventMealPlanUpdated = "meal_plan_updated"
	EventMealPlanDeleted = "meal_plan_deleted"

	EventReceiptCreated = "receipt_created"
	EventReceiptUpdated = "receipt_updated"
	EventReceiptDeleted = "receipt_deleted"

	// EventConnected is the server's greeting after a successful upgrade.
	EventConnected = "connected"
)

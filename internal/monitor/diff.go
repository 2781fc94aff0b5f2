package monitor

import "wb-order-monitor/internal/models"

// CollectIDs gathers the id set of a fetched page.
func CollectIDs(orders []models.Order) models.OrderIDSet {
	ids := models.NewOrderIDSet()
	for _, o := range orders {
		ids.Add(o.ID)
	}
	return ids
}

// NewOrders returns the fetched orders whose ids are not in the known set,
// preserving fetch order so notifications go out in the order the API reported.
func NewOrders(fetched []models.Order, known models.OrderIDSet) []models.Order {
	var fresh []models.Order
	for _, o := range fetched {
		if !known.Contains(o.ID) {
			fresh = append(fresh, o)
		}
	}
	return fresh
}

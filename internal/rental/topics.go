package rental

const (
	TopicOrderCreated  = "rental.order.created"
	TopicOrderStatus   = "rental.order.status"
	TopicStockOversold = "rental.stock.oversold"
)

// Partition key = order_id, so every event of one order stays ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }

package redisx

import "time"

const (
	// Idempotent order creation: idem:order:create:{external_ref} -> order_id
	KeyIdemOrderCreate = "idem:order:create:%s"

	// Order status cache: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Availability cache: avail:{product_id}:{start}:{end} -> remaining units
	KeyAvailability = "avail:%s:%s:%s"

	// Dedup for event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Latest stock report for the back office: stock_report:{date}
	KeyStockReport = "stock_report:%s"
)

var (
	TTLIdempotency  = 24 * time.Hour
	TTLStatusCache  = 5 * time.Minute
	TTLAvailability = 30 * time.Second
	TTLDedup        = 48 * time.Hour
	TTLStockReport  = 10 * time.Minute
)

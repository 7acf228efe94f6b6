package shop

import "strconv"

const (
	TopicOrderPlaced = "shop.order.placed"
)

// Partition key = order id, supaya semua event untuk satu order maintain
// urutan.
func PartitionKey(orderID int64) []byte {
	return []byte(strconv.FormatInt(orderID, 10))
}

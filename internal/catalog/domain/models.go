// Package domain contains the read-only catalog models the association
// engine consumes. The catalog itself is owned by an external service;
// nothing in this repository mutates these tables.
package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// SuccessfulOrderStatuses are the statuses that qualify an order for
// co-occurrence aggregation.
func SuccessfulOrderStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered}
}

type Product struct {
	ID         int64   `gorm:"primaryKey;column:id"`
	Name       string  `gorm:"type:text;not null"`
	Brand      *string `gorm:"type:text"`
	CategoryID int64   `gorm:"not null;index"`
	Active     bool    `gorm:"not null"`
}

func (Product) TableName() string { return "products" }

type Category struct {
	ID       int64  `gorm:"primaryKey;column:id"`
	ParentID *int64 `gorm:"index"`
	Name     string `gorm:"type:text;not null"`
}

func (Category) TableName() string { return "categories" }

type Order struct {
	ID       int64       `gorm:"primaryKey;column:id"`
	PlacedAt time.Time   `gorm:"not null;index"`
	Status   OrderStatus `gorm:"type:text;not null;index"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID        int64 `gorm:"primaryKey"`
	OrderID   int64 `gorm:"not null;index"`
	ProductID int64 `gorm:"not null;index"`
	Quantity  int   `gorm:"not null;default:1"`
}

func (OrderItem) TableName() string { return "order_items" }

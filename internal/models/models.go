package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func ValidStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// ImmutableStatuses lists the statuses that block order Update/Delete.
// Only "completed" is a confirmed terminal state; the set is a var so a
// deployment can extend it.
var ImmutableStatuses = map[OrderStatus]bool{
	OrderStatusCompleted: true,
}

func BlocksMutation(s OrderStatus) bool {
	return ImmutableStatuses[s]
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"  json:"id"`
	Username     string `gorm:"unique;not null"           json:"username"`
	Email        string `gorm:"not null"                  json:"email"`
	PasswordHash string `gorm:"not null"                  json:"-"`
	Role         Role   `gorm:"not null;default:customer" json:"role"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type Token struct {
	ID        uint      `gorm:"primaryKey"           json:"id"`
	Key       string    `gorm:"unique;not null"      json:"key"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	Name        string          `gorm:"not null"                    json:"name"`
	Description string          `gorm:"not null"                    json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Stock       uint            `json:"stock"`
}

type Order struct {
	ID        uint            `gorm:"primaryKey"                  json:"id"`
	Number    string          `gorm:"unique;not null"             json:"number"`
	UserID    uint            `gorm:"index;not null"              json:"user_id"`
	Status    OrderStatus     `gorm:"not null"                    json:"status"`
	Total     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total"`
	Items     []OrderItem     `gorm:"foreignKey:OrderID"          json:"items"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID          uint            `gorm:"primaryKey"                  json:"id"`
	OrderID     uint            `gorm:"index;not null"              json:"order_id"`
	ProductID   uint            `gorm:"not null"                    json:"product_id"`
	ProductName string          `gorm:"not null"                    json:"product_name"`
	Quantity    uint            `gorm:"default:1;check:quantity>0"  json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"`
}

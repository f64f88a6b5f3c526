package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/logging"
	"github.com/Skotchmaster/shop_api/internal/middleware/auth"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/mykafka"
	"github.com/Skotchmaster/shop_api/internal/util"
)

type OrderHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

// validationError marks a transaction failure caused by bad input rather
// than by storage, so the handler can answer 400 instead of 500.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicOrderEvents, fmt.Sprint(event["orderID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *OrderHandler) loadOrder(c echo.Context) (*models.Order, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.DB.WithContext(c.Request().Context()).
		Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return &order, nil
}

// ListOrders scopes the query to the requester: admins see every order,
// everyone else only their own. The filter is applied before pagination.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	user := auth.CurrentUser(c)

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	q := h.DB.WithContext(c.Request().Context()).Model(&models.Order{})
	if !user.IsAdmin() {
		q = q.Where("user_id = ?", user.ID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var orders []models.Order
	if err := q.Preload("Items").Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": orders,
		"meta": echo.Map{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

// CreateOrder attaches the authenticated requester as owner. The request
// body carries no owner field; anything the client sends there is ignored.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	user := auth.CurrentUser(c)

	var req struct {
		Items []struct {
			ProductID uint `json:"product_id"`
			Quantity  uint `json:"quantity"`
		} `json:"items"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "items required"})
	}

	// product lookups, price capture and the insert share one transaction,
	// so a concurrent catalog change cannot produce a stale-priced or
	// dangling-item order
	var order models.Order
	txErr := h.DB.WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(req.Items))

		for _, it := range req.Items {
			if it.Quantity == 0 {
				return &validationError{msg: "quantity must be > 0"}
			}

			var product models.Product
			if err := tx.First(&product, it.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &validationError{msg: fmt.Sprintf("product %d does not exist", it.ProductID)}
				}
				return err
			}

			items = append(items, models.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    it.Quantity,
				UnitPrice:   product.Price,
			})
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}

		order = models.Order{
			Number: uuid.NewString(),
			UserID: user.ID,
			Status: models.OrderStatusPending,
			Total:  total,
			Items:  items,
		}
		return tx.Create(&order).Error
	})
	if txErr != nil {
		var ve *validationError
		if errors.As(txErr, &ve) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.msg})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":    "order_created",
		"orderID": order.ID,
		"userID":  order.UserID,
		"total":   order.Total,
	})

	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	order, err := h.loadOrder(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// UpdateOrder changes the order status. The completed-order guard runs
// before the ownership check, so even the owner gets a validation failure
// on a completed order and nothing is written.
func (h *OrderHandler) UpdateOrder(c echo.Context) error {
	user := auth.CurrentUser(c)

	order, err := h.loadOrder(c)
	if err != nil {
		return err
	}

	if models.BlocksMutation(order.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot update a completed order"})
	}

	if !auth.CanMutateOrder(user, order) {
		return echo.NewHTTPError(http.StatusForbidden, "permission denied")
	}

	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !models.ValidStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	// Completion belongs to the fulfillment pipeline, not this surface.
	if models.BlocksMutation(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("cannot set status %q through the API", req.Status)})
	}

	order.Status = req.Status
	if err := h.DB.WithContext(c.Request().Context()).Save(order).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":    "order_updated",
		"orderID": order.ID,
		"userID":  order.UserID,
		"status":  order.Status,
	})

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) DeleteOrder(c echo.Context) error {
	user := auth.CurrentUser(c)

	order, err := h.loadOrder(c)
	if err != nil {
		return err
	}

	if models.BlocksMutation(order.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete a completed order"})
	}

	if !auth.CanMutateOrder(user, order) {
		return echo.NewHTTPError(http.StatusForbidden, "permission denied")
	}

	txErr := h.DB.WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, order.ID).Error
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":    "order_deleted",
		"orderID": order.ID,
		"userID":  order.UserID,
	})

	return c.NoContent(http.StatusNoContent)
}

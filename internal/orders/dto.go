package orders

// LineRequest is one submitted line item. During edits the id references the
// persisted line and Delete soft-marks it for removal.
type LineRequest struct {
	ID        *int64 `json:"id,omitempty"`
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
	Delete    bool   `json:"delete,omitempty"`
}

type CreateOrderRequest struct {
	CustomerName string        `json:"customer_name" validate:"required,max=255"`
	Channel      string        `json:"channel" validate:"max=32"`
	Lines        []LineRequest `json:"lines" validate:"required,min=1,dive"`
}

type UpdateOrderRequest struct {
	CustomerName *string       `json:"customer_name,omitempty" validate:"omitempty,max=255"`
	Lines        []LineRequest `json:"lines" validate:"required,min=1,dive"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

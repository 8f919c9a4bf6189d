package cart

import (
	"errors"
)

var (
	ErrOutOfStock = errors.New("out of stock")
	ErrNotFound   = errors.New("product not in cart")
	ErrUpstream   = errors.New("upstream failure")
	ErrPersist    = errors.New("persist cart failed")
)

type Kind string

const (
	KindOutOfStock   Kind = "out_of_stock"
	KindAddFailed    Kind = "add_failed"
	KindRemoveFailed Kind = "remove_failed"
	KindUpdateFailed Kind = "update_failed"
)

const (
	MsgOutOfStock   = "requested quantity exceeds stock"
	MsgAddFailed    = "failed to add product"
	MsgRemoveFailed = "failed to remove product"
	MsgUpdateFailed = "failed to update product quantity"
)

// Notification is a fire-and-forget, user-facing message emitted when an
// operation is abandoned. Cause keeps the classified error for sinks that
// need more than the message.
type Notification struct {
	Kind      Kind   `json:"kind"`
	Message   string `json:"message"`
	ProductID int    `json:"product_id"`
	Cause     error  `json:"-"`
}

func outOfStock(productID int, cause error) Notification {
	return Notification{Kind: KindOutOfStock, Message: MsgOutOfStock, ProductID: productID, Cause: cause}
}

func addFailed(productID int, cause error) Notification {
	return Notification{Kind: KindAddFailed, Message: MsgAddFailed, ProductID: productID, Cause: cause}
}

func removeFailed(productID int, cause error) Notification {
	return Notification{Kind: KindRemoveFailed, Message: MsgRemoveFailed, ProductID: productID, Cause: cause}
}

func updateFailed(productID int, cause error) Notification {
	return Notification{Kind: KindUpdateFailed, Message: MsgUpdateFailed, ProductID: productID, Cause: cause}
}

// outcome labels an error for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.Is(err, ErrPersist):
		return "persist"
	default:
		return "error"
	}
}

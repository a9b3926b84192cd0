package cartstore

import (
	pkgerrors "github.com/mvaldez-dev/storefront-checkout/pkg/errors"
)

// Line is one product pending purchase. Unique by ProductID within a
// cart; prices are integer currency minor units.
type Line struct {
	ProductID string `json:"productId"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

// AppliedCoupon is the coupon resolution currently attached to a cart.
// The percentage is sticky; the absolute discount is recomputed from the
// live subtotal at submission time.
type AppliedCoupon struct {
	CouponID           string  `json:"couponId"`
	Code               string  `json:"code"`
	DiscountPercentage float64 `json:"discountPercentage"`
}

// Cart is the session-owned set of selected line items. It holds no
// server truth; stock and pricing are revalidated at checkout time.
type Cart struct {
	Lines  []Line         `json:"lines"`
	Coupon *AppliedCoupon `json:"coupon,omitempty"`
}

// AddLine merges the given line into the cart. Re-adding an existing
// product sums quantities and refreshes the unit price snapshot.
func (c *Cart) AddLine(line Line) error {
	if line.ProductID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if line.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	if line.UnitPrice < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}
	// Editing the cart invalidates any resolved coupon; it must be
	// re-applied against the new contents.
	c.Coupon = nil
	for i := range c.Lines {
		if c.Lines[i].ProductID == line.ProductID {
			c.Lines[i].Quantity += line.Quantity
			c.Lines[i].UnitPrice = line.UnitPrice
			return nil
		}
	}
	c.Lines = append(c.Lines, line)
	return nil
}

// SetQuantity replaces the quantity for a product. Zero removes the line.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	if quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID != productID {
			continue
		}
		c.Coupon = nil
		if quantity == 0 {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return nil
		}
		c.Lines[i].Quantity = quantity
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
}

// RemoveLine drops a product from the cart.
func (c *Cart) RemoveLine(productID string) error {
	return c.SetQuantity(productID, 0)
}

// Subtotal is the sum of line unit price times quantity.
func (c *Cart) Subtotal() int64 {
	var total int64
	for _, line := range c.Lines {
		total += line.UnitPrice * int64(line.Quantity)
	}
	return total
}

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

// Clone returns a deep copy so a checkout attempt owns its own snapshot.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return &Cart{}
	}
	copied := &Cart{Lines: make([]Line, len(c.Lines))}
	copy(copied.Lines, c.Lines)
	if c.Coupon != nil {
		couponCopy := *c.Coupon
		copied.Coupon = &couponCopy
	}
	return copied
}

package order

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"

	"github.com/naranjashop/storefront/internal/domain/cart"
	"github.com/naranjashop/storefront/internal/domain/coupon"
	"github.com/naranjashop/storefront/internal/domain/pricing"
	"github.com/naranjashop/storefront/internal/domain/site"
	"github.com/naranjashop/storefront/internal/whatsapp"
)

// ErrEmptyCart rejects checkout before any network call when there is
// nothing to order.
var ErrEmptyCart = errors.New("cart is empty")

// InvalidDraftError reports draft fields that failed validation.
type InvalidDraftError struct {
	Fields []string
}

func (e *InvalidDraftError) Error() string {
	return "invalid order draft: " + strings.Join(e.Fields, ", ")
}

// Confirmation is the result of a successful checkout. Order carries the
// server's authoritative fields; Estimate is the client-side breakdown whose
// savings lines stay in the confirmation for display richness.
type Confirmation struct {
	Order        *Order
	Estimate     pricing.Breakdown
	Message      string
	WhatsAppLink string
}

// Service submits checkouts to the shop API and reconciles the result.
type Service struct {
	orders   Creator
	messages *whatsapp.Builder
	validate *validator.Validate
}

// NewService creates the checkout service.
func NewService(orders Creator, messages *whatsapp.Builder) *Service {
	return &Service{
		orders:   orders,
		messages: messages,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Checkout validates the draft, submits the raw cart (ids and quantities
// only, never client-computed totals) to the shop API, and on success clears
// the cart and builds the confirmation from the server-returned order.
// On failure the cart is left untouched so the user can correct and retry.
func (s *Service) Checkout(
	ctx context.Context,
	c *cart.Cart,
	draft Draft,
	info *coupon.Info,
	cfg site.Config,
) (*Confirmation, error) {
	items := c.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	// Pickup orders carry no address by contract.
	if draft.DeliveryMethod == pricing.Pickup {
		draft.Address = ""
	}
	draft.CouponCode = strings.TrimSpace(draft.CouponCode)

	draft.Items = make([]Item, len(items))
	for i, it := range items {
		draft.Items[i] = Item{ProductID: it.Product.ID, Quantity: it.Quantity}
	}

	if err := s.validate.Struct(draft); err != nil {
		return nil, draftError(err)
	}

	// Client-side estimate, computed before submission so the itemized
	// savings survive into the confirmation.
	estimate := pricing.Quote(items, info, draft.DeliveryMethod, cfg)

	o, err := s.orders.CreateOrder(ctx, draft)
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	// Success: the cart is cleared unconditionally.
	c.Clear()

	msg := s.messages.Message(buildReceipt(o, draft, items, estimate))

	return &Confirmation{
		Order:        o,
		Estimate:     estimate,
		Message:      msg,
		WhatsAppLink: whatsapp.Link(cfg.WhatsAppPhone, msg),
	}, nil
}

// buildReceipt merges the trust boundary: money fields and customer echo from
// the server order, itemization from the client snapshot and estimate.
func buildReceipt(o *Order, draft Draft, items []cart.Item, estimate pricing.Breakdown) whatsapp.Receipt {
	rcpt := whatsapp.Receipt{
		OrderID:    o.ID,
		CreatedAt:  o.CreatedAt,
		Name:       o.Name,
		Phone:      o.Phone,
		Address:    firstNonEmpty(draft.Address, o.Address),
		Pickup:     o.DeliveryMethod == pricing.Pickup,
		CashOnFoot: o.PaymentMethod == PaymentCash,
		CouponCode: draft.CouponCode,
		Subtotal:   estimate.Subtotal,
		Discount:   estimate.Discount,
		Shipping:   o.ShippingCost,
		Total:      o.Total,
	}

	rcpt.Items = make([]whatsapp.Item, len(items))
	for i, it := range items {
		rcpt.Items[i] = whatsapp.Item{
			Name:      it.Product.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.Product.UnitPrice(),
		}
	}

	rcpt.Savings = make([]whatsapp.SavingsLine, len(estimate.Savings))
	for i, l := range estimate.Savings {
		rcpt.Savings[i] = whatsapp.SavingsLine{Label: l.Label, Amount: l.Amount}
	}

	return rcpt
}

// draftError flattens validator output into a stable field list.
func draftError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate draft")
	}

	fields := make([]string, len(verrs))
	for i, fe := range verrs {
		fields[i] = fe.Field()
	}
	return &InvalidDraftError{Fields: fields}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

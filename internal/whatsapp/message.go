// Package whatsapp renders the order confirmation hand-off: a pre-formatted
// text summary opened as a wa.me deep link on the store's phone number.
// This is presentation layered on top of the pricing output; authoritative
// money fields in the receipt come from the server-returned order.
package whatsapp

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const mapsSearchURL = "https://www.google.com/maps/search/?api=1&query="

// Item is one confirmed order line for the summary.
type Item struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// SavingsLine mirrors one itemized discount row from the price breakdown.
type SavingsLine struct {
	Label  string
	Amount decimal.Decimal
}

// Transfer carries the bank transfer details appended for transfer payments.
type Transfer struct {
	Alias  string
	Holder string
	CUIT   string
	Entity string
}

// Receipt is everything the summary needs. Total and ShippingCost must come
// from the server-returned order, not the client estimate; Subtotal, Discount
// and Savings are the client-side itemization kept for display richness.
type Receipt struct {
	OrderID    int64
	CreatedAt  time.Time
	Name       string
	Phone      string
	Address    string
	Pickup     bool
	CashOnFoot bool // cash payment; otherwise transfer
	CouponCode string

	Items    []Item
	Savings  []SavingsLine
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Builder renders receipts for one store.
type Builder struct {
	storeName    string
	storeAddress string
	transfer     Transfer
}

// NewBuilder returns a Builder for the given store identity.
func NewBuilder(storeName, storeAddress string, transfer Transfer) *Builder {
	return &Builder{
		storeName:    storeName,
		storeAddress: storeAddress,
		transfer:     transfer,
	}
}

// Message renders the full summary text.
func (b *Builder) Message(r Receipt) string {
	lines := []string{
		"¡Hola! Te paso el resumen de mi pedido",
		"",
		fmt.Sprintf("Pedido: #%d", r.OrderID),
		fmt.Sprintf("Tienda: %s", b.storeName),
		fmt.Sprintf("Fecha: %s", r.CreatedAt.Format("02/01/2006 15:04")),
		fmt.Sprintf("Nombre: %s", r.Name),
		fmt.Sprintf("Teléfono: %s", r.Phone),
		"",
	}

	if r.CashOnFoot {
		lines = append(lines, "Forma de pago: Efectivo")
	} else {
		lines = append(lines, "Forma de pago: Transferencia")
	}

	if r.Pickup {
		lines = append(lines,
			"Entrega: Retiro",
			fmt.Sprintf("Dirección de retiro (tienda): %s", b.storeAddress),
			fmt.Sprintf("Ubicación retiro: %s", mapsLink(b.storeAddress)),
			"Retiro en tienda: por favor acercate al local.",
		)
	} else {
		lines = append(lines, "Entrega: Delivery")
		if r.Address != "" {
			lines = append(lines,
				fmt.Sprintf("Dirección de entrega: %s", r.Address),
				fmt.Sprintf("Ubicación entrega: %s", mapsLink(r.Address)),
			)
		}
	}

	lines = append(lines, "Mi pedido es")
	for _, it := range r.Items {
		total := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		lines = append(lines, fmt.Sprintf("%dx %s: %s", it.Quantity, it.Name, FormatARS(total)))
	}

	lines = append(lines, "", fmt.Sprintf("Subtotal: %s", FormatARS(r.Subtotal)))

	if r.Discount.IsPositive() {
		desc := fmt.Sprintf("Descuentos: %s", FormatARS(r.Discount))
		if code := strings.TrimSpace(r.CouponCode); code != "" {
			desc += fmt.Sprintf(" (cupón %s)", code)
		}
		lines = append(lines, desc)
	}

	shipping := fmt.Sprintf("Envío: %s", FormatARS(r.Shipping))
	if r.Shipping.IsZero() && !r.Pickup {
		shipping += " (bonificado)"
	}
	lines = append(lines, shipping, fmt.Sprintf("Total: %s", FormatARS(r.Total)))

	if !r.CashOnFoot {
		lines = append(lines,
			"",
			"Datos para transferencia:",
			fmt.Sprintf("Alias: %s", b.transfer.Alias),
			fmt.Sprintf("Nombre y apellido: %s", b.transfer.Holder),
			fmt.Sprintf("CUIT/CUIL: %s", b.transfer.CUIT),
			fmt.Sprintf("Entidad: %s", b.transfer.Entity),
			"Enviá el comprobante por este chat, por favor.",
		)
	}

	return strings.Join(lines, "\n")
}

// Link builds the wa.me deep link for the given store phone and message text.
// It returns an empty string when the phone has no usable digits.
func Link(phone, text string) string {
	phone = SanitizePhone(phone)
	if phone == "" {
		return ""
	}
	return "https://wa.me/" + phone + "?text=" + url.QueryEscape(text)
}

// SanitizePhone strips everything but digits and a leading plus sign.
func SanitizePhone(phone string) string {
	var sb strings.Builder
	for i, r := range phone {
		if r >= '0' && r <= '9' || r == '+' && i == 0 {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// FormatARS renders a decimal amount in Argentine convention:
// thousands separated by dots, comma decimals, two fixed places.
func FormatARS(d decimal.Decimal) string {
	s := d.StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, _ := strings.Cut(s, ".")

	var sb strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte('.')
		}
		sb.WriteRune(r)
	}

	out := "$ " + sb.String() + "," + fracPart
	if neg {
		out = "-" + out
	}
	return out
}

func mapsLink(address string) string {
	return mapsSearchURL + url.QueryEscape(address)
}

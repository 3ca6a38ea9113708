// Package checkout turns cart contents into a prefilled WhatsApp link.
// There is no payment flow: the link opens a conversation with the store
// and nothing is awaited back.
package checkout

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	sendURL = "https://api.whatsapp.com/send"

	defaultSymbol   = "R$"
	defaultTemplate = "Olá! Gostaria de fazer um pedido: {{items}}. Total: {{total}}"

	itemsPlaceholder = "{{items}}"
	totalPlaceholder = "{{total}}"
)

var ErrEmptyCart = errors.New("cart is empty")

// Line is one order line as it appears in the outbound message.
type Line struct {
	Name     string
	Price    float64
	Quantity int
}

// Settings is the slice of store settings the formatter needs.
type Settings struct {
	WhatsappNumber  string
	MessageTemplate string
	CurrencySymbol  string
}

// Link renders the order summary into the message template and wraps it in
// a WhatsApp send URL. The template's {{items}} and {{total}} placeholders
// are literal text in the settings file, so substitution is literal too.
func Link(lines []Line, s Settings) (string, error) {
	if len(lines) == 0 {
		return "", ErrEmptyCart
	}

	symbol := s.CurrencySymbol
	if symbol == "" {
		symbol = defaultSymbol
	}

	parts := make([]string, len(lines))
	var total float64
	for i, l := range lines {
		amount := l.Price * float64(l.Quantity)
		total += amount
		parts[i] = fmt.Sprintf("%dx %s (%s)", l.Quantity, l.Name, FormatPrice(symbol, amount))
	}

	tmpl := s.MessageTemplate
	if tmpl == "" {
		tmpl = defaultTemplate
	}

	msg := strings.ReplaceAll(tmpl, itemsPlaceholder, strings.Join(parts, ", "))
	msg = strings.ReplaceAll(msg, totalPlaceholder, FormatPrice(symbol, total))

	return sendURL + "?phone=" + url.QueryEscape(s.WhatsappNumber) + "&text=" + url.QueryEscape(msg), nil
}

// FormatPrice renders an amount in pt-BR currency style: thousands split
// with '.', decimals with ',', e.g. "R$ 1.234,56".
func FormatPrice(symbol string, v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}

	s := strconv.FormatFloat(v, 'f', 2, 64)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}

	sign := ""
	if neg {
		sign = "-"
	}
	return symbol + " " + sign + b.String() + "," + frac
}

// Package receipt renders bills as fixed-width text for narrow printers.
package receipt

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bissquit/powerbill/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Width is the receipt line width in display columns.
const Width = 32

const (
	fieldWidth = Width / 2
	timeLayout = "02/01/2006 15:04"
	missing    = "-"
)

// Formatter renders receipts. It holds no mutable state and is safe for
// concurrent use.
type Formatter struct {
	loc     *time.Location
	printer *message.Printer
}

// NewFormatter creates a formatter that prints timestamps in loc.
// A nil loc means UTC.
func NewFormatter(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{
		loc:     loc,
		printer: message.NewPrinter(language.Indonesian),
	}
}

// Render lays out bill and its customer one line per element. customer may
// be nil when it has been deleted. Output depends only on the arguments.
func (f *Formatter) Render(bill *domain.Bill, customer *domain.Customer) []string {
	out := make([]string, 0, 32)
	kv := func(k, v string) { out = append(out, KeyValueLine(k, v)) }

	out = append(out,
		CenterLine("PAYMENT RECEIPT"),
		CenterLine("POSTPAID ELECTRICITY"),
		RuleLine(),
	)
	kv("Receipt No", fmt.Sprintf("%08d", bill.ID))
	kv("Date", f.formatTime(bill.CreatedAt))
	if bill.Paid {
		kv("Status", "PAID")
		if bill.PaidAt != nil {
			kv("Paid At", f.formatTime(*bill.PaidAt))
		}
	} else {
		kv("Status", "UNPAID")
	}
	out = append(out, RuleLine())

	out = append(out, "CUSTOMER", DottedLine())
	if customer != nil {
		kv("Name", orMissing(customer.Name))
		kv("Meter No", orMissing(customer.MeterNumber))
		kv("Tier", string(customer.VoltageTier)+" VA")
		kv("Phone", orMissing(customer.Phone))
	} else {
		kv("Name", missing)
		kv("Meter No", missing)
		kv("Tier", missing)
		kv("Phone", missing)
	}
	out = append(out, RuleLine())

	out = append(out, "DETAIL", DottedLine())
	kv("Usage", fmt.Sprintf("%d kWh", bill.UsageUnits))
	kv("Rate/kWh", f.Money(bill.TariffRate))
	out = append(out, RuleLine())
	kv("TOTAL", f.Money(bill.Total))
	out = append(out, RuleLine())

	out = append(out,
		CenterLine("Keep this receipt"),
		CenterLine("as proof of payment"),
		"",
		fmt.Sprintf("ID: %d", bill.ID),
	)
	return out
}

// Text renders the receipt as a single newline-terminated string.
func (f *Formatter) Text(bill *domain.Bill, customer *domain.Customer) string {
	return strings.Join(f.Render(bill, customer), "\n") + "\n"
}

// Money formats a whole-rupiah amount with Indonesian digit grouping,
// e.g. "Rp 72.200".
func (f *Formatter) Money(amount int64) string {
	return "Rp " + f.printer.Sprintf("%d", amount)
}

func (f *Formatter) formatTime(t time.Time) string {
	if t.IsZero() {
		return missing
	}
	return t.In(f.loc).Format(timeLayout)
}

// CenterLine left-pads text so it sits in the middle of the line. Text wider
// than Width is returned unchanged.
func CenterLine(text string) string {
	pad := (Width - utf8.RuneCountInString(text)) / 2
	if pad <= 0 {
		return text
	}
	return strings.Repeat(" ", pad) + text
}

// RuleLine returns a full-width line of dashes.
func RuleLine() string {
	return strings.Repeat("-", Width)
}

// DottedLine returns a full-width line of dots.
func DottedLine() string {
	return strings.Repeat(".", Width)
}

// KeyValueLine puts key left-aligned in the first half of the line and value
// right-aligned in the second half. Long keys lose their tail; long values
// lose their head.
func KeyValueLine(key, value string) string {
	return padRight(key, fieldWidth) + padLeft(value, fieldWidth)
}

func padRight(s string, n int) string {
	r := []rune(s)
	if len(r) >= n {
		return string(r[:n])
	}
	return s + strings.Repeat(" ", n-len(r))
}

func padLeft(s string, n int) string {
	r := []rune(s)
	if len(r) >= n {
		return string(r[len(r)-n:])
	}
	return strings.Repeat(" ", n-len(r)) + s
}

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return missing
	}
	return s
}

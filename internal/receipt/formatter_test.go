package receipt

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bissquit/powerbill/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBill() (*domain.Bill, *domain.Customer) {
	customer := &domain.Customer{
		ID:          3,
		Name:        "Budi",
		MeterNumber: "KWH001",
		Address:     "Jl. A",
		VoltageTier: domain.Tier1300,
		Phone:       "0800",
	}
	bill := &domain.Bill{
		ID:         7,
		CustomerID: customer.ID,
		UsageUnits: 50,
		TariffRate: 1444,
		Total:      72200,
		CreatedAt:  time.Date(2026, 10, 16, 7, 30, 0, 0, time.UTC),
	}
	return bill, customer
}

func findLine(lines []string, prefix string) (string, bool) {
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			return l, true
		}
	}
	return "", false
}

func TestKeyValueLine(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"short", "Name", "Budi", "Name" + strings.Repeat(" ", 24) + "Budi"},
		{"long key truncated at tail", "A very long label text", "x", "A very long labe" + strings.Repeat(" ", 15) + "x"},
		{"long value keeps rightmost", "Meter", "1234567890ABCDEFGHIJ", "Meter" + strings.Repeat(" ", 11) + "567890ABCDEFGHIJ"},
		{"exact widths", "0123456789abcdef", "fedcba9876543210", "0123456789abcdeffedcba9876543210"},
		{"empty", "", "", strings.Repeat(" ", 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KeyValueLine(tt.key, tt.value)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, Width, utf8.RuneCountInString(got))
		})
	}
}

func TestCenterLine(t *testing.T) {
	assert.Equal(t, strings.Repeat(" ", 14)+"ABCD", CenterLine("ABCD"))
	assert.Equal(t, strings.Repeat(" ", 13)+"ABCDE", CenterLine("ABCDE"))

	long := strings.Repeat("x", 40)
	assert.Equal(t, long, CenterLine(long), "no truncation for overlong text")
	assert.Equal(t, strings.Repeat("y", 32), CenterLine(strings.Repeat("y", 32)))
}

func TestRuleLines(t *testing.T) {
	assert.Equal(t, strings.Repeat("-", 32), RuleLine())
	assert.Equal(t, strings.Repeat(".", 32), DottedLine())
}

func TestFormatter_Money(t *testing.T) {
	f := NewFormatter(time.UTC)
	assert.Equal(t, "Rp 72.200", f.Money(72200))
	assert.Equal(t, "Rp 1.444", f.Money(1444))
	assert.Equal(t, "Rp 415", f.Money(415))
	assert.Equal(t, "Rp 0", f.Money(0))
	assert.Equal(t, "Rp 1.234.567", f.Money(1234567))
}

func TestFormatter_Render_UnpaidScenario(t *testing.T) {
	bill, customer := sampleBill()
	lines := NewFormatter(time.UTC).Render(bill, customer)

	total, ok := findLine(lines, "TOTAL")
	require.True(t, ok)
	assert.Equal(t, fmt.Sprintf("%-16s%16s", "TOTAL", "Rp 72.200"), total)

	idLines := 0
	for _, l := range lines {
		if l == "ID: 7" {
			idLines++
		}
	}
	assert.Equal(t, 1, idLines)

	code, ok := findLine(lines, "Receipt No")
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(code, "00000007"))

	status, ok := findLine(lines, "Status")
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(status, "UNPAID"))

	_, hasPaidAt := findLine(lines, "Paid At")
	assert.False(t, hasPaidAt)

	date, ok := findLine(lines, "Date")
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(date, "16/10/2026 07:30"))

	tier, ok := findLine(lines, "Tier")
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(tier, "1300 VA"))

	usage, ok := findLine(lines, "Usage")
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(usage, "50 kWh"))

	rate, ok := findLine(lines, "Rate/kWh")
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(rate, "Rp 1.444"))
}

func TestFormatter_Render_Layout(t *testing.T) {
	bill, customer := sampleBill()
	lines := NewFormatter(time.UTC).Render(bill, customer)

	want := []string{
		CenterLine("PAYMENT RECEIPT"),
		CenterLine("POSTPAID ELECTRICITY"),
		RuleLine(),
		KeyValueLine("Receipt No", "00000007"),
		KeyValueLine("Date", "16/10/2026 07:30"),
		KeyValueLine("Status", "UNPAID"),
		RuleLine(),
		"CUSTOMER",
		DottedLine(),
		KeyValueLine("Name", "Budi"),
		KeyValueLine("Meter No", "KWH001"),
		KeyValueLine("Tier", "1300 VA"),
		KeyValueLine("Phone", "0800"),
		RuleLine(),
		"DETAIL",
		DottedLine(),
		KeyValueLine("Usage", "50 kWh"),
		KeyValueLine("Rate/kWh", "Rp 1.444"),
		RuleLine(),
		KeyValueLine("TOTAL", "Rp 72.200"),
		RuleLine(),
		CenterLine("Keep this receipt"),
		CenterLine("as proof of payment"),
		"",
		"ID: 7",
	}
	assert.Equal(t, want, lines)
}

func TestFormatter_Render_FixedWidthLines(t *testing.T) {
	bill, customer := sampleBill()
	customer.Name = "Raden Mas Bagus Wicaksono Hadiningrat"
	lines := NewFormatter(time.UTC).Render(bill, customer)

	for _, l := range lines {
		if strings.Trim(l, "-") == "" && l != "" {
			assert.Equal(t, Width, len(l))
		}
		if strings.Trim(l, ".") == "" && l != "" {
			assert.Equal(t, Width, len(l))
		}
	}

	name, ok := findLine(lines, "Name")
	require.True(t, ok)
	assert.Equal(t, Width, utf8.RuneCountInString(name))
	assert.True(t, strings.HasSuffix(name, "Wicaksono Hadiningrat"[5:]))
}

func TestFormatter_Render_Paid(t *testing.T) {
	bill, customer := sampleBill()
	paidAt := time.Date(2026, 10, 20, 1, 5, 0, 0, time.UTC)
	bill.Paid = true
	bill.PaidAt = &paidAt

	jakarta := time.FixedZone("WIB", 7*60*60)
	lines := NewFormatter(jakarta).Render(bill, customer)

	status, ok := findLine(lines, "Status")
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(status, "PAID"))
	assert.False(t, strings.HasSuffix(status, "UNPAID"))

	paid, ok := findLine(lines, "Paid At")
	require.True(t, ok)
	assert.Equal(t, KeyValueLine("Paid At", "20/10/2026 08:05"), paid)

	date, ok := findLine(lines, "Date")
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(date, "16/10/2026 14:30"))
}

func TestFormatter_Render_DeletedCustomer(t *testing.T) {
	bill, _ := sampleBill()
	lines := NewFormatter(nil).Render(bill, nil)

	for _, key := range []string{"Name", "Meter No", "Tier", "Phone"} {
		line, ok := findLine(lines, key)
		require.True(t, ok, key)
		assert.Equal(t, KeyValueLine(key, "-"), line)
	}
}

func TestFormatter_Render_Deterministic(t *testing.T) {
	bill, customer := sampleBill()
	f := NewFormatter(time.UTC)

	first := f.Render(bill, customer)
	second := f.Render(bill, customer)
	assert.Equal(t, first, second)
	assert.Equal(t, strings.Join(first, "\n")+"\n", f.Text(bill, customer))
}

//go:build integration

package integration

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bissquit/powerbill/internal/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type customerResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	MeterNumber string `json:"meterNumber"`
	Address     string `json:"address"`
	VoltageTier string `json:"voltageTier"`
	Phone       string `json:"phone"`
}

type billResponse struct {
	ID         int64             `json:"id"`
	CustomerID int64             `json:"customerId"`
	UsageUnits int64             `json:"usageUnits"`
	TariffRate int64             `json:"tariffRate"`
	Total      int64             `json:"total"`
	Paid       bool              `json:"paid"`
	PaidAt     *time.Time        `json:"paidAt"`
	CreatedAt  time.Time         `json:"createdAt"`
	Customer   *customerResponse `json:"customer"`
}

type summaryResponse struct {
	BillCount   int   `json:"billCount"`
	PaidCount   int   `json:"paidCount"`
	TotalBilled int64 `json:"totalBilled"`
	TotalPaid   int64 `json:"totalPaid"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Details []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
}

// createCustomer registers a customer on the given tier and deletes it when
// the test ends.
func createCustomer(t *testing.T, client *testutil.Client, name, tier string) customerResponse {
	t.Helper()

	resp, err := client.POST("/api/customers", map[string]string{
		"name":        name,
		"meterNumber": testutil.RandomMeterNumber(),
		"address":     "Jl. Merdeka 1, Bandung",
		"voltageTier": tier,
		"phone":       "081234567890",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var customer customerResponse
	testutil.DecodeJSON(t, resp, &customer)

	t.Cleanup(func() {
		resp, err := client.WithoutValidation().DELETE(customerPath(customer.ID))
		if err == nil {
			_ = resp.Body.Close()
		}
	})
	return customer
}

// createBill bills a customer and deletes the bill when the test ends.
func createBill(t *testing.T, client *testutil.Client, customerID, usage int64) billResponse {
	t.Helper()

	resp, err := client.POST("/api/bills", map[string]int64{
		"customerId": customerID,
		"usageUnits": usage,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var bill billResponse
	testutil.DecodeJSON(t, resp, &bill)

	t.Cleanup(func() {
		resp, err := client.WithoutValidation().DELETE(billPath(bill.ID))
		if err == nil {
			_ = resp.Body.Close()
		}
	})
	return bill
}

// createUser inserts a non-admin account directly; the API has no sign-up.
func createUser(t *testing.T, email, password string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	_, err = testDB.Exec(context.Background(),
		`INSERT INTO users (name, email, password_hash, role) VALUES ($1, $2, $3, 'user')`,
		"Clerk", email, string(hash))
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = testDB.Exec(context.Background(), `DELETE FROM users WHERE email = $1`, email)
	})
}

func getSummary(t *testing.T, client *testutil.Client) summaryResponse {
	t.Helper()

	resp, err := client.GET("/api/bills/summary")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var s summaryResponse
	testutil.DecodeJSON(t, resp, &s)
	return s
}

func customerPath(id int64) string {
	return fmt.Sprintf("/api/customers/%d", id)
}

func billPath(id int64) string {
	return fmt.Sprintf("/api/bills/%d", id)
}

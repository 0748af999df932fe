//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/bissquit/powerbill/internal/receipt"
	"github.com/bissquit/powerbill/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomers_CRUD(t *testing.T) {
	client := newAdminClient(t)
	customer := createCustomer(t, client, "Siti Aminah", "2200")

	assert.NotZero(t, customer.ID)
	assert.Equal(t, "2200", customer.VoltageTier)

	resp, err := client.GET(customerPath(customer.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched customerResponse
	testutil.DecodeJSON(t, resp, &fetched)
	assert.Equal(t, customer, fetched)

	resp, err = client.PUT(customerPath(customer.ID), map[string]string{
		"name":        "Siti Aminah Putri",
		"meterNumber": customer.MeterNumber,
		"address":     "Jl. Asia Afrika 8, Bandung",
		"voltageTier": "3500",
		"phone":       customer.Phone,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated customerResponse
	testutil.DecodeJSON(t, resp, &updated)
	assert.Equal(t, "Siti Aminah Putri", updated.Name)
	assert.Equal(t, "3500", updated.VoltageTier)

	resp, err = client.GET("/api/customers")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []customerResponse
	testutil.DecodeJSON(t, resp, &list)
	ids := make([]int64, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.ID)
	}
	assert.Contains(t, ids, customer.ID)

	resp, err = client.DELETE(customerPath(customer.ID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = client.GET(customerPath(customer.ID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestCustomers_UnknownTierFallsBack(t *testing.T) {
	client := newAdminClient(t)
	customer := createCustomer(t, client, "Joko", "7700")
	assert.Equal(t, "1300", customer.VoltageTier)
}

func TestCustomers_DuplicateMeterNumber(t *testing.T) {
	client := newAdminClient(t)
	existing := createCustomer(t, client, "Ani", "900")

	resp, err := client.POST("/api/customers", map[string]string{
		"name":        "Ani Kembar",
		"meterNumber": existing.MeterNumber,
		"address":     "Jl. Braga 2",
		"phone":       "0811111111",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body errorResponse
	testutil.DecodeJSON(t, resp, &body)
	require.Len(t, body.Error.Details, 1)
	assert.Equal(t, "meterNumber", body.Error.Details[0].Field)
	assert.Equal(t, "unique", body.Error.Details[0].Message)
}

func TestCustomers_Validation(t *testing.T) {
	client := newAdminClient(t)

	resp, err := client.POST("/api/customers", map[string]string{"name": "No Meter"})
	require.NoError(t, err)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body errorResponse
	testutil.DecodeJSON(t, resp, &body)
	fields := make([]string, 0, len(body.Error.Details))
	for _, d := range body.Error.Details {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"meterNumber", "address", "phone"}, fields)
}

func TestCustomers_DeleteKeepsBills(t *testing.T) {
	client := newAdminClient(t)
	customer := createCustomer(t, client, "Rudi", "900")
	bill := createBill(t, client, customer.ID, 50)
	require.NotNil(t, bill.Customer)

	resp, err := client.DELETE(customerPath(customer.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = client.GET(billPath(bill.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var orphan billResponse
	testutil.DecodeJSON(t, resp, &orphan)
	assert.Equal(t, customer.ID, orphan.CustomerID)
	assert.Nil(t, orphan.Customer)
	assert.Equal(t, int64(67600), orphan.Total)

	resp, err = client.GET(billPath(bill.ID) + "/receipt")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, testutil.ReadBody(t, resp), receipt.KeyValueLine("Name", "-"))
}

func TestCustomers_NotFound(t *testing.T) {
	client := newAdminClient(t).WithoutValidation()

	for _, path := range []string{"/api/customers/999999999", "/api/customers/abc"} {
		resp, err := client.GET(path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		_ = resp.Body.Close()
	}
}

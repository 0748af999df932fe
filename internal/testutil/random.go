package testutil

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// RandomEmail returns an address unique to this run.
func RandomEmail() string {
	return fmt.Sprintf("user-%s@example.com", randomSuffix())
}

// RandomMeterNumber returns a meter number unique to this run.
func RandomMeterNumber() string {
	return "MTR-" + strings.ToUpper(randomSuffix())
}

package loans

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biblio-backend/internal/platform/apierr"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestResolveDueDateDefault(t *testing.T) {
	svc := &Service{durationDays: 14}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	due, err := svc.resolveDueDate(now, CreateLoanRequest{BookULID: "x"})
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, 14), due)
}

func TestResolveDueDateExplicitDuration(t *testing.T) {
	svc := &Service{durationDays: 14}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	due, err := svc.resolveDueDate(now, CreateLoanRequest{BookULID: "x", DurationDays: intPtr(7)})
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, 7), due)

	_, err = svc.resolveDueDate(now, CreateLoanRequest{BookULID: "x", DurationDays: intPtr(0)})
	assert.Error(t, err)
	_, err = svc.resolveDueDate(now, CreateLoanRequest{BookULID: "x", DurationDays: intPtr(-3)})
	assert.Error(t, err)
}

func TestResolveDueDateExplicitDate(t *testing.T) {
	svc := &Service{durationDays: 14}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	due, err := svc.resolveDueDate(now, CreateLoanRequest{BookULID: "x", DueDate: strPtr("2026-04-01")})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), due)
}

func TestResolveDueDateRejectsPastAndMalformed(t *testing.T) {
	svc := &Service{durationDays: 14}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for _, in := range []string{"2026-03-01", "2026-03-10", "01/04/2026", "garbage"} {
		_, err := svc.resolveDueDate(now, CreateLoanRequest{BookULID: "x", DueDate: strPtr(in)})
		require.Error(t, err, in)

		var api *apierr.APIError
		require.ErrorAs(t, err, &api, in)
		assert.Equal(t, apierr.CodeInvalidArgument, api.Code, in)
	}
}

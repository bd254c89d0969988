// AngelaMos | 2026
// entity_test.go

package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryLogScan(t *testing.T) {
	raw := []byte(`[
		{"status":"pending","timestamp":"2026-08-01T10:00:00Z"},
		{"status":"approved","timestamp":"2026-08-02T09:30:00Z",
		 "reviewed_by":"admin-1","feedback":"ok"}
	]`)

	var h HistoryLog
	require.NoError(t, h.Scan(raw))

	require.Len(t, h, 2)
	assert.Equal(t, StatusPending, h[0].Status)
	assert.Empty(t, h[0].ReviewedBy)
	assert.Equal(t, StatusApproved, h[1].Status)
	assert.Equal(t, "admin-1", h[1].ReviewedBy)
	assert.Equal(t, "ok", h[1].Feedback)
}

func TestHistoryLogScanNull(t *testing.T) {
	var h HistoryLog
	require.NoError(t, h.Scan(nil))
	assert.Nil(t, h)
}

func TestHistoryLogScanUnsupportedType(t *testing.T) {
	var h HistoryLog
	assert.Error(t, h.Scan(42))
}

func TestHistoryLogValueNilIsEmptyArray(t *testing.T) {
	var h HistoryLog
	v, err := h.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
}

func TestStatusForAction(t *testing.T) {
	status, ok := statusForAction(ActionApprove)
	assert.True(t, ok)
	assert.Equal(t, StatusApproved, status)

	status, ok = statusForAction(ActionReject)
	assert.True(t, ok)
	assert.Equal(t, StatusRejected, status)

	_, ok = statusForAction("escalate")
	assert.False(t, ok)
}

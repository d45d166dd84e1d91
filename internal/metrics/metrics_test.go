package metrics

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordBookingByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordBooking(nil)
	c.RecordBooking(nil)
	c.RecordBooking(fmt.Errorf("book slot 1: %w", model.ErrSlotFull))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.bookings.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.bookings.WithLabelValues("slot_full")))
}

func TestCollector_GuardDecisions(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordGuardDecision("add_time_off", model.ErrScheduleConflict)
	c.RecordGuardDecision("replace_availability", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.guardDecisions.WithLabelValues("add_time_off", "schedule_conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.guardDecisions.WithLabelValues("replace_availability", "ok")))
}

func TestCollector_CandidateSearch(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCandidateSearch(3, 5*time.Millisecond)
	c.RecordLockWait("slot", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.searches))
	assert.Equal(t, 1, testutil.CollectAndCount(c.lockWait))
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordCancellation(nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "lesson_booking_cancellations_total")
}

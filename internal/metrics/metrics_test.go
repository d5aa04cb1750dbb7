package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTransition("pending", "completed")
	c.RecordTransition("pending", "completed")
	c.RecordTransition("completed", "rejected")
	c.RecordDenied("update_task", "not_assignee")
	c.RecordChatEvent("message_received")
	c.RecordHTTPStatus(http.StatusForbidden)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.transitions.WithLabelValues("pending", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.transitions.WithLabelValues("completed", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.denied.WithLabelValues("update_task", "not_assignee")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.chatEvents.WithLabelValues("message_received")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpStatus.WithLabelValues("403")))
}

func TestNewCollector_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	assert.Panics(t, func() { NewCollector(reg) })
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordChatEvent("typing_status")

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `tasktracker_chat_events_total{type="typing_status"} 1`)
}

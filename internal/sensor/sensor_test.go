package sensor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medflow-backend/config"
	"medflow-backend/internal/model"
)

// mockAppender records appended readings.
type mockAppender struct {
	mu       sync.Mutex
	readings []model.VitalReading
}

func (m *mockAppender) AppendVital(ctx context.Context, v model.VitalReading) model.VitalReading {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings = append(m.readings, v)
	return v
}

func feedServer(t *testing.T, feeds ...FeedResponse) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	call := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Monitor-Token"))
		mu.Lock()
		feed := feeds[min(call, len(feeds)-1)]
		call++
		mu.Unlock()
		json.NewEncoder(w).Encode(feed)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestService(url string, sink Appender) *Service {
	return NewService(config.SensorConfig{
		Enabled:  true,
		URL:      url,
		Headers:  map[string]string{"X-Monitor-Token": "secret"},
		Timezone: "UTC",
	}, sink, nil)
}

func TestPollOnce_AppendsSensorReadingsInOrder(t *testing.T) {
	server := feedServer(t, FeedResponse{Readings: []FeedReading{
		{Timestamp: "2026-03-14 09:10:00", HeartRate: 90, SpO2: 96, BloodPressure: "125/82"},
		{Timestamp: "2026-03-14T09:05:00Z", HeartRate: 85, SpO2: 97, BloodPressure: "122/80"},
	}})
	sink := &mockAppender{}

	n, err := newTestService(server.URL, sink).PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, sink.readings, 2)
	assert.Equal(t, 85, sink.readings[0].HeartRate, "readings are appended oldest first")
	assert.Equal(t, 90, sink.readings[1].HeartRate)
	for _, v := range sink.readings {
		assert.Equal(t, model.SourceSensor, v.Source)
	}
}

func TestPollOnce_SkipsAlreadyIngested(t *testing.T) {
	first := FeedResponse{Readings: []FeedReading{
		{Timestamp: "2026-03-14T09:00:00Z", HeartRate: 80, SpO2: 98},
	}}
	second := FeedResponse{Readings: []FeedReading{
		{Timestamp: "2026-03-14T09:00:00Z", HeartRate: 80, SpO2: 98},
		{Timestamp: "2026-03-14T09:01:00Z", HeartRate: 115, SpO2: 93},
	}}
	server := feedServer(t, first, second)
	sink := &mockAppender{}
	s := newTestService(server.URL, sink)

	n, err := s.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, sink.readings, 2)
	assert.Equal(t, 115, sink.readings[1].HeartRate)
}

func TestPollOnce_SkipsBadTimestamps(t *testing.T) {
	server := feedServer(t, FeedResponse{Readings: []FeedReading{
		{Timestamp: "soon", HeartRate: 80, SpO2: 98},
		{Timestamp: "1773480600000", HeartRate: 81, SpO2: 98},
	}})
	sink := &mockAppender{}

	n, err := newTestService(server.URL, sink).PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPollOnce_FetchFailureAppendsNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "monitor offline", http.StatusServiceUnavailable)
	}))
	defer server.Close()
	sink := &mockAppender{}

	n, err := newTestService(server.URL, sink).PollOnce(context.Background())
	assert.Error(t, err)
	assert.Zero(t, n)
	assert.Empty(t, sink.readings)
}

func TestPollOnce_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer server.Close()

	_, err := newTestService(server.URL, &mockAppender{}).PollOnce(context.Background())
	assert.ErrorContains(t, err, "unmarshal")
}

func TestRun_DisabledReturnsImmediately(t *testing.T) {
	s := NewService(config.SensorConfig{Enabled: false}, &mockAppender{}, nil)
	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()
	<-done
}

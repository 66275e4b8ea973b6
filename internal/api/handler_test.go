package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medflow-backend/config"
	"medflow-backend/internal/model"
	"medflow-backend/internal/record"
	"medflow-backend/internal/shell"
	"medflow-backend/internal/supervisor"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubGenerator answers immediately unless block is set.
type stubGenerator struct {
	block chan struct{}
}

func (s *stubGenerator) GenerateLegalReport(ctx context.Context, rec record.PatientRecord) string {
	if s.block != nil {
		<-s.block
	}
	return "1. Incident Summary"
}

func (s *stubGenerator) GenerateEducationalSummary(ctx context.Context, rec record.PatientRecord, label string) string {
	return "why " + label
}

type testEnv struct {
	router *gin.Engine
	shell  *shell.Shell
	desk   *supervisor.Desk
	gen    *stubGenerator
}

var testServerConfig = config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 60}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	rec := record.Seed(config.PatientConfig{ID: "P-10293", Name: "John Doe", Age: 54, Room: "402"}, "seed", time.Now())
	sh := shell.New(rec, "Dr. Sarah (Senior)")
	gen := &stubGenerator{}
	desk := supervisor.NewDesk(context.Background(), sh, gen, nil)
	h := NewHandler(sh, desk, nil, nil, time.UTC, nil)
	return &testEnv{router: NewRouter(h, testServerConfig), shell: sh, desk: desk, gen: gen}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) form(path string, values url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	e.router.ServeHTTP(w, req)
	return w
}

func TestGetState(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Patient struct {
			Name   string               `json:"name"`
			Vitals []model.VitalReading `json:"vitals"`
		} `json:"patient"`
		Alert   *string    `json:"alert"`
		Role    model.Role `json:"role"`
		Overlay bool       `json:"overlay"`
		Desk    struct {
			Generating bool `json:"generating"`
		} `json:"desk"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "John Doe", got.Patient.Name)
	assert.Len(t, got.Patient.Vitals, 1)
	assert.Equal(t, model.RoleJunior, got.Role)
	assert.Nil(t, got.Alert)
	assert.False(t, got.Overlay)
}

func TestPostVitals_CriticalRaisesAlert(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodPost, "/api/resident/vitals", `{"heartRate":120,"spO2":98,"bloodPressure":"130/85"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var got struct {
		Reading model.VitalReading `json:"reading"`
		Alert   *string            `json:"alert"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 120, got.Reading.HeartRate)
	assert.Equal(t, model.SourceResident, got.Reading.Source)
	require.NotNil(t, got.Alert)
	assert.Equal(t, "Critical Vitals Alert for John Doe", *got.Alert)
}

func TestPostVitals_Invalid(t *testing.T) {
	e := newTestEnv(t)
	testCases := []struct {
		name string
		body string
	}{
		{"Empty heart rate", `{"heartRate":"","spO2":98}`},
		{"Missing SpO2", `{"heartRate":80}`},
		{"Decimal", `{"heartRate":80.5,"spO2":98}`},
		{"Malformed JSON", `{"heartRate":`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := e.do(http.MethodPost, "/api/resident/vitals", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Len(t, e.shell.Record().Vitals, 1)
}

func TestPostVitals_FormRedirects(t *testing.T) {
	e := newTestEnv(t)

	w := e.form("/api/resident/vitals", url.Values{"heartRate": {"88"}, "spO2": {"96"}, "bloodPressure": {"118/76"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Len(t, e.shell.Record().Vitals, 2)

	w = e.form("/api/resident/vitals", url.Values{"heartRate": {""}, "spO2": {"96"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/?error="))
}

func TestRoleGating(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/api/supervisor/interventions/start-oxygen", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPost, "/api/role", `{"role":"SENIOR"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodPost, "/api/resident/remarks", `{"text":"Stable"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPost, "/api/role", `{"role":"ADMIN"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, model.RoleSenior, e.shell.Role())
}

func TestRemarks(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/api/resident/remarks", `{"text":"   "}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"added":false}`, w.Body.String())

	w = e.do(http.MethodPost, "/api/resident/remarks", `{"text":"Pale complexion"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	e.shell.SetRole(context.Background(), model.RoleSenior)
	w = e.do(http.MethodPost, "/api/supervisor/remarks", `{"text":"Start oxygen if below 94"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	remarks := e.shell.Record().Remarks
	require.Len(t, remarks, 3)
	assert.Equal(t, model.AuthorJunior, remarks[1].Author)
	assert.Equal(t, model.AuthorSenior, remarks[2].Author)
}

func TestRemarks_FormKeepsTypedText(t *testing.T) {
	e := newTestEnv(t)

	w := e.form("/api/resident/remarks", url.Values{"text": {"Stable", "patient dizzy on standing"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	remarks := e.shell.Record().Remarks
	assert.Equal(t, "Stable patient dizzy on standing", remarks[len(remarks)-1].Text)

	w = e.form("/api/resident/remarks", url.Values{"text": {"  "}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Len(t, e.shell.Record().Remarks, len(remarks))
}

func TestRoleGating_FormRedirects(t *testing.T) {
	e := newTestEnv(t)
	e.shell.SetRole(context.Background(), model.RoleSenior)

	w := e.form("/api/resident/remarks", url.Values{"text": {"late post"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/?error="))
	assert.Len(t, e.shell.Record().Remarks, 1)
}

func TestInterventionAndToggle(t *testing.T) {
	e := newTestEnv(t)
	e.shell.AppendVital(context.Background(), model.VitalReading{HeartRate: 80, SpO2: 91})
	e.shell.SetRole(context.Background(), model.RoleSenior)
	require.True(t, e.shell.Snapshot().Overlay)

	w := e.do(http.MethodPost, "/api/supervisor/interventions/start-oxygen", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var got struct {
		Action model.Action `json:"action"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Start Oxygen", got.Action.Label)
	assert.Nil(t, e.shell.Snapshot().Alert)

	w = e.do(http.MethodPost, "/api/supervisor/interventions/defibrillate", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Either role may toggle.
	e.shell.SetRole(context.Background(), model.RoleJunior)
	w = e.do(http.MethodPost, "/api/actions/"+got.Action.ID+"/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	a, _ := e.shell.Record().ActionByID(got.Action.ID)
	assert.Equal(t, model.StatusDone, a.Status)

	w = e.do(http.MethodPost, "/api/actions/unknown/toggle", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"toggled":false}`, w.Body.String())

	e.desk.Wait()
}

func TestLegalReport(t *testing.T) {
	e := newTestEnv(t)
	e.gen.block = make(chan struct{})
	e.shell.SetRole(context.Background(), model.RoleSenior)

	w := e.do(http.MethodPost, "/api/supervisor/reports/legal", "")
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = e.do(http.MethodPost, "/api/supervisor/reports/legal", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	close(e.gen.block)
	e.desk.Wait()

	w = e.do(http.MethodGet, "/api/supervisor", "")
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Report     string `json:"report"`
		HasReport  bool   `json:"hasReport"`
		Generating bool   `json:"generating"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.True(t, page.HasReport)
	assert.Equal(t, "1. Incident Summary", page.Report)
	assert.False(t, page.Generating)
}

func TestDismissAlert(t *testing.T) {
	e := newTestEnv(t)
	e.shell.AppendVital(context.Background(), model.VitalReading{HeartRate: 130, SpO2: 97})

	w := e.form("/api/alert/dismiss", url.Values{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Nil(t, e.shell.Snapshot().Alert)
}

func TestGetInterventions(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodGet, "/api/interventions", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Interventions []struct {
			Key   string `json:"key"`
			Label string `json:"label"`
			Type  string `json:"type"`
		} `json:"interventions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Interventions, 6)
	assert.Equal(t, "start-oxygen", got.Interventions[0].Key)
}

func TestGetIndex(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Bedside Panel")
	assert.Contains(t, body, "Stable upon admission")
	assert.Contains(t, body, "Pale complexion")
	assert.Contains(t, body, `id="remark-text"`)
	assert.Contains(t, body, `<button type="button" onclick=`)
	assert.NotContains(t, body, `name="text" value=`, "canned phrases fill the composer instead of posting")
	assert.NotContains(t, body, "Decision Interface")

	e.shell.AppendVital(context.Background(), model.VitalReading{HeartRate: 80, SpO2: 92})
	e.shell.SetRole(context.Background(), model.RoleSenior)

	w = e.do(http.MethodGet, "/?error=bad+input", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = w.Body.String()
	assert.Contains(t, body, "Decision Interface")
	assert.Contains(t, body, "HYPOXIA RISK")
	assert.Contains(t, body, "Critical Vitals Alert for John Doe")
	assert.Contains(t, body, "Amlodipine 5mg")
	assert.Contains(t, body, "bad input")
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetVAPIDPublicKey_NotConfigured(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodGet, "/api/vapid_public_key", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

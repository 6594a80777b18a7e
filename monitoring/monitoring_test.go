package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandler(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/messages/{id:[0-9]+}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Use(InstrumentHandler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/messages/42", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	mrec := httptest.NewRecorder()
	Handler().ServeHTTP(mrec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, mrec.Code)
	body := mrec.Body.String()
	assert.Contains(t, body, `route="/messages/{id:[0-9]+}"`)
	assert.Contains(t, body, `status="418"`)
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(Forbidden.WithLabelValues("edit_message"))
	Forbidden.WithLabelValues("edit_message").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Forbidden.WithLabelValues("edit_message")))
}

func TestHandler(t *testing.T) {
	MessagesPosted.Inc()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "warbler_messages_posted_total"))
}

package fundgz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/fundwatch/internal/collector"
	"github.com/newthinker/fundwatch/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBody = `jsonpgz({"fundcode":"005827","name":"易方达蓝筹精选混合","jzrq":"2024-01-04","dwjz":"1.8760","gsz":"1.8921","gszzl":"0.86","gztime":"2024-01-05 15:00"});`

func TestClient_ImplementsFundEstimator(t *testing.T) {
	var _ collector.FundEstimator = (*Client)(nil)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    error
		wantChg string
	}{
		{name: "plain", body: sampleBody, wantChg: "0.86"},
		{name: "surrounding whitespace", body: "\n  " + sampleBody + " \r\n", wantChg: "0.86"},
		{name: "inner whitespace", body: `jsonpgz( {"gszzl":"-1.2"} );`, wantChg: "-1.2"},
		{name: "empty callback", body: `jsonpgz();`, want: core.ErrNoData},
		{name: "wrong callback", body: `callback({"gszzl":"1"});`, want: core.ErrPayloadInvalid},
		{name: "missing suffix", body: `jsonpgz({"gszzl":"1"})`, want: core.ErrPayloadInvalid},
		{name: "bare json", body: `{"gszzl":"1"}`, want: core.ErrPayloadInvalid},
		{name: "html error page", body: `<html>404</html>`, want: core.ErrPayloadInvalid},
		{name: "broken json", body: `jsonpgz({"gszzl":);`, want: core.ErrPayloadInvalid},
		{name: "empty", body: ``, want: core.ErrPayloadInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Decode([]byte(tt.body))
			if tt.want != nil {
				assert.True(t, errors.Is(err, tt.want), "expected %v, got %v", tt.want, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantChg, p.ChangePct)
		})
	}
}

func TestPayload_Estimate(t *testing.T) {
	p, err := Decode([]byte(sampleBody))
	require.NoError(t, err)

	est, err := p.Estimate("005827")
	require.NoError(t, err)
	assert.Equal(t, 0.86, est.ChangePct)
	assert.Equal(t, 1.876, est.NetValue)
	assert.Equal(t, 1.8921, est.EstValue)
	assert.Equal(t, "2024-01-05 15:00", est.UpdateTime)
	assert.Equal(t, Source, est.Source)
}

func TestPayload_Estimate_MissingChange(t *testing.T) {
	p := &Payload{NetValue: "1.0", ChangePct: ""}
	_, err := p.Estimate("005827")
	assert.True(t, errors.Is(err, core.ErrNoData))
}

func TestClient_FetchEstimate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/js/005827.js" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/javascript")
		w.Write([]byte(sampleBody))
	}))
	defer server.Close()

	c := New(collector.HTTPConfig{BaseURL: server.URL}, nil, nil)

	est, err := c.FetchEstimate(context.Background(), "005827")
	require.NoError(t, err)
	assert.Equal(t, 0.86, est.ChangePct)

	_, err = c.FetchEstimate(context.Background(), "000000")
	assert.True(t, errors.Is(err, core.ErrProviderFailed), "got %v", err)
}

func TestClient_FetchEstimate_Undecodable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`jsonpgz();`))
	}))
	defer server.Close()

	c := New(collector.HTTPConfig{BaseURL: server.URL}, nil, nil)
	_, err := c.FetchEstimate(context.Background(), "005827")
	assert.Error(t, err)
}

func newSlowServer(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(delay):
		}
		w.Write([]byte(sampleBody))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClient_FetchEstimate_Timeout(t *testing.T) {
	server := newSlowServer(t, 2*time.Second)
	c := New(collector.HTTPConfig{BaseURL: server.URL, Timeout: 50 * time.Millisecond}, nil, nil)

	start := time.Now()
	_, err := c.FetchEstimate(context.Background(), "005827")
	assert.True(t, errors.Is(err, core.ErrProviderTimeout), "got %v", err)
	assert.Less(t, time.Since(start), time.Second)
}

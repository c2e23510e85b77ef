package cbr

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/loan-reminders/internal/config"
)

const keyRateResponse = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
  <soap:Body>
    <KeyRateResponse xmlns="http://web.cbr.ru/">
      <KeyRateResult>
        <diffgr:diffgram xmlns:diffgr="urn:schemas-microsoft-com:xml-diffgram-v1">
          <KeyRate xmlns="">
            <KR><DT>2026-10-17T00:00:00+03:00</DT><Rate>16.50</Rate></KR>
            <KR><DT>2026-10-16T00:00:00+03:00</DT><Rate>17.00</Rate></KR>
          </KeyRate>
        </diffgr:diffgram>
      </KeyRateResult>
    </KeyRateResponse>
  </soap:Body>
</soap:Envelope>`

func newTestClient(url string) *CBRClient {
	logger, _ := logtest.NewNullLogger()
	c := NewCBRClient(&config.Config{CBRURL: url, KeyRateMargin: 5}, logger)
	c.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestGetKeyRate(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "http://web.cbr.ru/KeyRate", r.Header.Get("SOAPAction"))
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		_, _ = io.WriteString(w, keyRateResponse)
	}))
	defer srv.Close()

	rate, err := newTestClient(srv.URL).GetKeyRate(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 21.5, rate, 0.0001)
	assert.Contains(t, gotBody, "<fromDate>2026-09-19</fromDate>")
	assert.Contains(t, gotBody, "<ToDate>2026-10-19</ToDate>")
}

func TestGetKeyRate_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetKeyRate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestParseXMLResponse_Errors(t *testing.T) {
	_, err := parseXMLResponse([]byte("<a><b></a>"))
	assert.Error(t, err)

	_, err = parseXMLResponse([]byte(`<root><diffgram><KeyRate></KeyRate></diffgram></root>`))
	assert.ErrorContains(t, err, "no key rate data")

	_, err = parseXMLResponse([]byte(`<root><diffgram><KeyRate><KR><Rate>high</Rate></KR></KeyRate></diffgram></root>`))
	assert.ErrorContains(t, err, "failed to parse rate")
}

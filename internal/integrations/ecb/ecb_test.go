package ecb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/mortgage-simulator/internal/config"
)

const sdmxBody = `<?xml version="1.0" encoding="UTF-8"?>
<message:GenericData xmlns:message="http://www.sdmx.org/resources/sdmxml/schemas/v2_1/message" xmlns:generic="http://www.sdmx.org/resources/sdmxml/schemas/v2_1/data/generic">
  <message:DataSet>
    <generic:Series>
      <generic:SeriesKey>
        <generic:Value id="FREQ" value="B"/>
      </generic:SeriesKey>
      <generic:Obs>
        <generic:ObsDimension value="2025-06-10"/>
        <generic:ObsValue value="2.4"/>
      </generic:Obs>
      <generic:Obs>
        <generic:ObsDimension value="2025-06-11"/>
        <generic:ObsValue value="2.15"/>
      </generic:Obs>
    </generic:Series>
  </message:DataSet>
</message:GenericData>`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger, _ := test.NewNullLogger()
	return NewClient(&config.Config{ECBURL: srv.URL}, logger)
}

func TestGetReferenceRate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(sdmxBody))
	})

	rate, err := c.GetReferenceRate(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 2.15, rate, 1e-9)
}

func TestGetReferenceRate_BadStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.GetReferenceRate(context.Background())
	assert.ErrorContains(t, err, "unexpected status code: 503")
}

func TestParseObservation(t *testing.T) {
	_, _, err := parseObservation([]byte(`<GenericData><DataSet/></GenericData>`))
	assert.ErrorContains(t, err, "no observation found")

	_, _, err = parseObservation([]byte(`<GenericData><Series><Obs><ObsValue value="n/a"/></Obs></Series></GenericData>`))
	assert.ErrorContains(t, err, "failed to parse rate")

	_, _, err = parseObservation([]byte(`not xml`))
	assert.Error(t, err)
}

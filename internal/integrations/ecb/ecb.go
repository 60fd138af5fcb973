package ecb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Dan9191/mortgage-simulator/internal/config"
	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"
)

// Client reads the ECB main refinancing rate from the SDMX data API
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new ECB client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.ECBURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// fetch downloads the SDMX generic data document
func (c *Client) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.sdmx.genericdata+xml;version=2.1")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debugf("ECB XML response: %s", string(body))
	return body, nil
}

// parseObservation extracts the value of the most recent observation
func parseObservation(rawBody []byte) (float64, string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return 0, "", fmt.Errorf("failed to parse XML: %w", err)
	}

	obs := doc.FindElements("//Series/Obs")
	if len(obs) == 0 {
		return 0, "", fmt.Errorf("no observation found in XML")
	}

	// Observations are listed chronologically.
	latest := obs[len(obs)-1]
	valueElement := latest.FindElement("./ObsValue")
	if valueElement == nil {
		return 0, "", fmt.Errorf("observation value not found in XML")
	}

	rate, err := strconv.ParseFloat(valueElement.SelectAttrValue("value", ""), 64)
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse rate: %w", err)
	}

	var period string
	if dim := latest.FindElement("./ObsDimension"); dim != nil {
		period = dim.SelectAttrValue("value", "")
	}
	return rate, period, nil
}

// GetReferenceRate retrieves the latest ECB main refinancing rate in percent
func (c *Client) GetReferenceRate(ctx context.Context) (float64, error) {
	body, err := c.fetch(ctx)
	if err != nil {
		return 0, err
	}

	rate, period, err := parseObservation(body)
	if err != nil {
		return 0, err
	}

	c.log.Infof("Retrieved ECB reference rate: %.2f%% (period %s)", rate, period)
	return rate, nil
}

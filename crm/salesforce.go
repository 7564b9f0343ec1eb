// ABOUTME: Salesforce REST connector implementation
// ABOUTME: Issues SOQL queries and sobject create/update calls over the REST API
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	apiVersion     = "v59.0"
	requestTimeout = 30 * time.Second
)

// SalesforceConnector talks to a Salesforce org over the REST API.
// Authentication uses a pre-obtained access token; the OAuth dance itself
// is handled outside this engine.
type SalesforceConnector struct {
	instanceURL string
	httpClient  *http.Client
}

// NewSalesforceConnector creates a connector for the given org instance.
func NewSalesforceConnector(instanceURL, accessToken string) *SalesforceConnector {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	client := oauth2.NewClient(context.Background(), source)
	client.Timeout = requestTimeout

	return &SalesforceConnector{
		instanceURL: strings.TrimRight(instanceURL, "/"),
		httpClient:  client,
	}
}

// NewSalesforceConnectorFromEnv builds a connector from SALESFORCE_INSTANCE_URL
// and SALESFORCE_ACCESS_TOKEN.
func NewSalesforceConnectorFromEnv() (*SalesforceConnector, error) {
	instance := os.Getenv("SALESFORCE_INSTANCE_URL")
	token := os.Getenv("SALESFORCE_ACCESS_TOKEN")
	if instance == "" || token == "" {
		return nil, fmt.Errorf("SALESFORCE_INSTANCE_URL and SALESFORCE_ACCESS_TOKEN must be set")
	}
	return NewSalesforceConnector(instance, token), nil
}

type queryResponse struct {
	TotalSize      int      `json:"totalSize"`
	Done           bool     `json:"done"`
	NextRecordsURL string   `json:"nextRecordsUrl,omitempty"`
	Records        []Record `json:"records"`
}

type saveResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Errors  []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Query runs a SOQL query, following pagination until done.
func (c *SalesforceConnector) Query(ctx context.Context, soql string) ([]Record, error) {
	endpoint := fmt.Sprintf("%s/services/data/%s/query?q=%s",
		c.instanceURL, apiVersion, url.QueryEscape(soql))

	var all []Record
	for endpoint != "" {
		body, err := c.do(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}

		var resp queryResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode query response: %w", err)
		}
		all = append(all, resp.Records...)

		if resp.Done || resp.NextRecordsURL == "" {
			break
		}
		endpoint = c.instanceURL + resp.NextRecordsURL
	}

	return all, nil
}

// Create inserts a new sobject and returns its id.
func (c *SalesforceConnector) Create(ctx context.Context, objType string, fields map[string]any) (SaveResult, error) {
	endpoint := fmt.Sprintf("%s/services/data/%s/sobjects/%s", c.instanceURL, apiVersion, objType)

	payload, err := json.Marshal(fields)
	if err != nil {
		return SaveResult{}, fmt.Errorf("failed to encode %s fields: %w", objType, err)
	}

	body, err := c.do(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return SaveResult{}, err
	}

	var resp saveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return SaveResult{}, fmt.Errorf("failed to decode create response: %w", err)
	}
	if !resp.Success {
		msg := "unknown error"
		if len(resp.Errors) > 0 {
			msg = resp.Errors[0].Message
		}
		return SaveResult{}, fmt.Errorf("%s create failed: %s", objType, msg)
	}

	return SaveResult{Success: true, ID: resp.ID}, nil
}

// Update patches an existing sobject. Salesforce returns 204 on success.
func (c *SalesforceConnector) Update(ctx context.Context, objType, id string, fields map[string]any) (SaveResult, error) {
	endpoint := fmt.Sprintf("%s/services/data/%s/sobjects/%s/%s",
		c.instanceURL, apiVersion, objType, id)

	payload, err := json.Marshal(fields)
	if err != nil {
		return SaveResult{}, fmt.Errorf("failed to encode %s fields: %w", objType, err)
	}

	if _, err := c.do(ctx, http.MethodPatch, endpoint, payload); err != nil {
		return SaveResult{}, err
	}

	return SaveResult{Success: true, ID: id}, nil
}

func (c *SalesforceConnector) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("salesforce request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("salesforce returned %d: %s", resp.StatusCode, truncateBody(body))
	}

	return body, nil
}

func truncateBody(body []byte) string {
	const max = 200
	s := string(body)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// Package lookup resolves geolocation and ISP metadata for banned addresses
// against a findip.net-compatible HTTP API.
package lookup

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"
)

const defaultLookupTimeout = 10 * time.Second

// Metadata is the per-key enrichment result.
type Metadata struct {
	Country  string
	City     string
	Provider string
}

type lookupResponse struct {
	Country struct {
		Names map[string]string `json:"names"`
	} `json:"country"`
	City struct {
		Names map[string]string `json:"names"`
	} `json:"city"`
	Traits struct {
		ISP string `json:"isp"`
	} `json:"traits"`
}

// Client performs one HTTP lookup per key. Errors never escape as anything
// other than a *LookupError.
type Client struct {
	client  *resty.Client
	baseURL string
	token   string
}

func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(0)
	client.JSONMarshal = jsoniter.Marshal
	client.JSONUnmarshal = jsoniter.Unmarshal

	return NewClientWithResty(baseURL, token, client)
}

func NewClientWithResty(baseURL, token string, client *resty.Client) (*Client, error) {
	trimmedBase := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedBase == "" {
		return nil, fmt.Errorf("lookup base url is required")
	}
	if _, err := url.ParseRequestURI(trimmedBase); err != nil {
		return nil, fmt.Errorf("invalid lookup base url: %w", err)
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("lookup api token is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultLookupTimeout)
	}
	client.SetRetryCount(0)

	return &Client{
		client:  client,
		baseURL: trimmedBase,
		token:   token,
	}, nil
}

// Lookup fetches metadata for a single key. Any absent field defaults to the
// empty string; any transport, status, or decode failure becomes a LookupError.
func (c *Client) Lookup(ctx context.Context, key string) (Metadata, error) {
	if c == nil || c.client == nil {
		return Metadata{}, fmt.Errorf("lookup client is not initialized")
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return Metadata{}, &LookupError{Key: key, Message: "key is empty"}
	}

	response, err := c.client.R().
		SetContext(ctx).
		Get(c.lookupURL(trimmedKey))
	if err != nil {
		return Metadata{}, &LookupError{
			Key:     trimmedKey,
			Message: "lookup request failed",
			Cause:   err,
		}
	}
	if response == nil {
		return Metadata{}, &LookupError{
			Key:     trimmedKey,
			Message: "lookup returned empty response",
		}
	}

	if statusCode := response.StatusCode(); statusCode != http.StatusOK {
		return Metadata{}, &LookupError{
			Key:        trimmedKey,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("lookup returned status %d", statusCode),
		}
	}

	// Decode the raw body regardless of the response content type; an
	// upstream proxy can answer 200 with an HTML error page.
	var body lookupResponse
	if err := jsoniter.Unmarshal(response.Body(), &body); err != nil {
		return Metadata{}, &LookupError{
			Key:     trimmedKey,
			Message: "lookup returned malformed body",
			Cause:   err,
		}
	}

	return Metadata{
		Country:  body.Country.Names["en"],
		City:     body.City.Names["en"],
		Provider: body.Traits.ISP,
	}, nil
}

func (c *Client) lookupURL(key string) string {
	return fmt.Sprintf("%s/%s/?token=%s", c.baseURL, key, url.QueryEscape(c.token))
}

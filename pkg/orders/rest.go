package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// RESTClient talks to the order backend's internal REST API using Basic
// auth. The backend enforces the conditional update itself; this client
// only maps its responses onto the package's errors.
type RESTClient struct {
	BaseURL string
	Key     string
	Secret  string
	client  *http.Client
}

func NewRESTClient(baseURL, key, secret string, timeout time.Duration) *RESTClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RESTClient{
		BaseURL: baseURL,
		Key:     key,
		Secret:  secret,
		client:  &http.Client{Timeout: timeout},
	}
}

type orderResp struct {
	ID       int64  `json:"id"`
	Status   string `json:"status"`
	Total    int64  `json:"total"`
	Currency string `json:"currency"`
}

type statusUpdateReq struct {
	Status   string `json:"status"`
	Expected string `json:"expected,omitempty"`
}

func (c *RESTClient) FetchStatus(ctx context.Context, orderID int64) (Status, error) {
	url := fmt.Sprintf("%s/orders/%d", c.BaseURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.Key, c.Secret)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch order %d: %w", orderID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", ErrNotFound
	default:
		return "", fmt.Errorf("fetch order %d: status %d", orderID, resp.StatusCode)
	}

	var out orderResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("fetch order %d: decode: %w", orderID, err)
	}
	return Status(out.Status), nil
}

func (c *RESTClient) UpdateStatus(ctx context.Context, orderID int64, next, expect Status) error {
	body, _ := json.Marshal(statusUpdateReq{Status: string(next), Expected: string(expect)})
	url := fmt.Sprintf("%s/orders/%d/status", c.BaseURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.Key, c.Secret)

	logrus.WithFields(logrus.Fields{
		"order_id": orderID,
		"next":     next,
		"expected": expect,
	}).Debug("updating order status")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("update order %d: %w", orderID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	default:
		return fmt.Errorf("update order %d: status %d", orderID, resp.StatusCode)
	}
}

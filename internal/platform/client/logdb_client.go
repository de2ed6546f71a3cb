package client

import (
	"net/http"
	"time"

	"LogDB/internal/domain"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const (
	entries_endpoint = "/db/{key}"
	health_endpoint  = "/health"
)

type LogDBClient struct {
	client    *resty.Client
	serverUrl string
}

type SaveEntryRequest struct {
	Value string `json:"value"`
}

type EntryResponse struct {
	Key       string `json:"key,omitempty"`
	Value     string `json:"value"`
	Tombstone bool   `json:"tombstone,omitempty"`
}

type HealthResponse struct {
	Status       string `json:"status"`
	Keys         int    `json:"keys"`
	LogSizeBytes int64  `json:"log_size_bytes"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewLogDBClient(serverUrl string) *LogDBClient {
	return &LogDBClient{
		client:    resty.New().SetTimeout(10 * time.Second),
		serverUrl: serverUrl,
	}
}

// Get returns the stored value for key or domain.ErrKeyNotFound.
func (c *LogDBClient) Get(key string) (string, error) {
	var resp EntryResponse
	res, err := c.client.R().
		SetPathParam("key", key).
		SetResult(&resp).
		SetError(&errorResponse{}).
		Get(c.serverUrl + entries_endpoint)
	if err != nil {
		return "", errors.Wrapf(err, "get %q", key)
	}
	if err := responseError(res); err != nil {
		return "", err
	}
	return resp.Value, nil
}

func (c *LogDBClient) Put(key, value string) error {
	res, err := c.client.R().
		SetPathParam("key", key).
		SetBody(&SaveEntryRequest{Value: value}).
		SetError(&errorResponse{}).
		Put(c.serverUrl + entries_endpoint)
	if err != nil {
		return errors.Wrapf(err, "put %q", key)
	}
	return responseError(res)
}

func (c *LogDBClient) Delete(key string) error {
	res, err := c.client.R().
		SetPathParam("key", key).
		SetError(&errorResponse{}).
		Delete(c.serverUrl + entries_endpoint)
	if err != nil {
		return errors.Wrapf(err, "delete %q", key)
	}
	return responseError(res)
}

func (c *LogDBClient) Health() (*HealthResponse, error) {
	var resp HealthResponse
	res, err := c.client.R().SetResult(&resp).Get(c.serverUrl + health_endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "health")
	}
	if err := responseError(res); err != nil {
		return nil, err
	}
	return &resp, nil
}

func responseError(res *resty.Response) error {
	if !res.IsError() {
		return nil
	}
	msg := res.Status()
	if e, ok := res.Error().(*errorResponse); ok && e.Error != "" {
		msg = e.Error
	}
	switch res.StatusCode() {
	case http.StatusNotFound:
		return errors.Wrap(domain.ErrKeyNotFound, msg)
	case http.StatusBadRequest:
		return errors.Wrap(domain.ErrEmptyKey, msg)
	default:
		return errors.Errorf("server returned %d: %s", res.StatusCode(), msg)
	}
}

package influx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/domain"
)

// Client wraps an InfluxDB v2 connection bound to one org and bucket.
type Client struct {
	client influxdb2.Client
	org    string
	bucket string
}

// Connect opens the client and fails unless the server reports healthy.
func Connect(ctx context.Context, url string, token string, org string, bucket string) (*Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("influx url is required")
	}
	client := influxdb2.NewClient(url, token)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("influx health check: %w", err)
	}
	if health.Status != domain.HealthCheckStatusPass {
		client.Close()
		message := ""
		if health.Message != nil {
			message = *health.Message
		}
		return nil, fmt.Errorf("influx unhealthy: %s %s", health.Status, message)
	}
	return &Client{client: client, org: org, bucket: bucket}, nil
}

func (c *Client) WriteAPI() api.WriteAPIBlocking {
	return c.client.WriteAPIBlocking(c.org, c.bucket)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	c.client.Close()
	return nil
}

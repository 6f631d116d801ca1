package opensearch

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

const defaultIndexPrefix = "paybridge"

// Config holds the connection settings
type Config struct {
	URL                string
	Username           string
	Password           string
	IndexPrefix        string
	InsecureSkipVerify bool
}

// Client wraps the OpenSearch client
type Client struct {
	client *opensearch.Client
	prefix string
}

// NewClient creates a new OpenSearch client
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("opensearch url is required")
	}

	opensearchConfig := opensearch.Config{
		Addresses: []string{cfg.URL},
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify},
		},
		MaxRetries:    3,
		RetryOnStatus: []int{502, 503, 504, 429},
		RetryBackoff: func(i int) time.Duration {
			return time.Duration(i) * 100 * time.Millisecond
		},
	}

	if cfg.Username != "" && cfg.Password != "" {
		opensearchConfig.Username = cfg.Username
		opensearchConfig.Password = cfg.Password
	}

	client, err := opensearch.NewClient(opensearchConfig)
	if err != nil {
		return nil, err
	}

	prefix := cfg.IndexPrefix
	if prefix == "" {
		prefix = defaultIndexPrefix
	}

	return &Client{client: client, prefix: prefix}, nil
}

// GetClient returns the underlying OpenSearch client
func (c *Client) GetClient() *opensearch.Client {
	return c.client
}

// SetupIndices creates the audit index of every provider that is missing
// one. Failures are logged and skipped.
func (c *Client) SetupIndices(ctx context.Context, providers []string) {
	for _, provider := range providers {
		indexName := c.GetLogIndexName(provider)

		exists, err := c.indexExists(ctx, indexName)
		if err != nil {
			log.Printf("Error checking index %s: %v", indexName, err)
			continue
		}

		if !exists {
			if err := c.createLogIndex(ctx, indexName); err != nil {
				log.Printf("Error creating index %s: %v", indexName, err)
				continue
			}
			log.Printf("Created OpenSearch index: %s", indexName)
		}
	}
}

func (c *Client) indexExists(ctx context.Context, indexName string) (bool, error) {
	req := opensearchapi.IndicesExistsRequest{
		Index: []string{indexName},
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	return res.StatusCode == http.StatusOK, nil
}

// createLogIndex creates an audit index with the payment log mapping
func (c *Client) createLogIndex(ctx context.Context, indexName string) error {
	mapping := `{
		"mappings": {
			"properties": {
				"timestamp":  {"type": "date", "format": "strict_date_optional_time||epoch_millis"},
				"log_id":     {"type": "keyword"},
				"provider":   {"type": "keyword"},
				"operation":  {"type": "keyword"},
				"request":    {"type": "text"},
				"response":   {"type": "text"},
				"processing_time_ms": {"type": "long"},
				"status":     {"type": "keyword"},
				"error": {
					"type": "object",
					"properties": {
						"kind":    {"type": "keyword"},
						"message": {"type": "text"}
					}
				}
			}
		},
		"settings": {
			"number_of_shards": 1,
			"number_of_replicas": 0
		}
	}`

	req := opensearchapi.IndicesCreateRequest{
		Index: indexName,
		Body:  strings.NewReader(mapping),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index creation error: %s", res.String())
	}

	return nil
}

// GetLogIndexName returns the audit index of a provider; "" matches the
// indices of every provider
func (c *Client) GetLogIndexName(provider string) string {
	if provider == "" {
		provider = "*"
	}
	return c.prefix + "-" + provider + "-logs"
}

// SystemIndexName returns the index holding application logs
func (c *Client) SystemIndexName() string {
	return c.prefix + "-system-logs"
}

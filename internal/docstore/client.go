// Package docstore implements the DocumentStoreClient contract from
// SPEC_FULL.md §6: a generic reference adapter to whatever external
// document system owns source content (link, owners, last-modified,
// raw HTML). The interface+clientImpl shape and bearer-token auth follow
// server/ghclient's Client wrapping go-github; here there is no SDK to
// wrap, so doRequest is adapted directly from server/cursor/client.go.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/fieldnotes/articlepipeline/internal/models"
	"github.com/fieldnotes/articlepipeline/internal/retry"
)

// Document is the raw shape synced for one document, prior to C2 parsing.
type Document struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	HTML         string    `json:"html"`
	Link         string    `json:"link"`
	Owners       []string  `json:"owners"`
	LastModified time.Time `json:"last_modified"`
}

// Client is the subset of document-store operations the sync job and
// orchestrator need.
type Client interface {
	// ListChanged returns documents modified since the given time (or all
	// documents, for the first sync, when since is zero).
	ListChanged(ctx context.Context, since time.Time) ([]Document, error)
	// Get fetches a single document by ID.
	Get(ctx context.Context, id string) (Document, error)
}

type clientImpl struct {
	baseURL    string
	token      string
	httpClient *http.Client
	policy     retry.Policy
}

// New builds a Client against baseURL, authenticating with a bearer token.
func New(baseURL, token string) Client {
	return &clientImpl{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		policy:     retry.Default(),
	}
}

func (c *clientImpl) ListChanged(ctx context.Context, since time.Time) ([]Document, error) {
	path := "/documents"
	if !since.IsZero() {
		path += "?since=" + since.UTC().Format(time.RFC3339)
	}
	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var docs []Document
	if err := json.Unmarshal(body, &docs); err != nil {
		return nil, errors.Wrap(models.ErrInvalidUpstreamData, err.Error())
	}
	return docs, nil
}

func (c *clientImpl) Get(ctx context.Context, id string) (Document, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/documents/"+id, nil)
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return Document{}, errors.Wrap(models.ErrInvalidUpstreamData, err.Error())
	}
	return doc, nil
}

// doRequest performs an HTTP request with the standard retry policy,
// retrying on 429 and 5xx the same way server/cursor/client.go does.
func (c *clientImpl) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var bodyBytes []byte
	if payload != nil {
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "marshal request body")
		}
	}

	var result []byte
	classify := func(err error) retry.Classification {
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			if apiErr.StatusCode == 429 || apiErr.StatusCode >= 500 {
				return retry.Retryable
			}
			return retry.Permanent
		}
		return retry.Retryable
	}

	err := retry.Do(ctx, c.policy, classify, func(ctx context.Context, attempt int) error {
		var reqBody io.Reader
		if bodyBytes != nil {
			reqBody = bytes.NewReader(bodyBytes)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return errors.Wrap(models.ErrTransientExternal, err.Error())
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return errors.Wrap(models.ErrTransientExternal, err.Error())
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			result = respBody
			return nil
		}

		return &apiError{StatusCode: resp.StatusCode, Body: string(respBody)}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("document store request failed: status=%d body=%s", e.StatusCode, e.Body)
}

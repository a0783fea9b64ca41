package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andeslabs/bancora/internal/domain"
)

// ProviderError is a failure reported by the banking-data provider. Status
// mirrors the provider's HTTP status so callers can pass it through.
type ProviderError struct {
	Status int
	Detail string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider: %s (status=%d)", e.Detail, e.Status)
}

// Client encapsulates outbound calls to the open-banking provider.
type Client interface {
	Institutions(ctx context.Context) ([]domain.Institution, error)
	RegisterAccounts(ctx context.Context, linkID string) error
	Accounts(ctx context.Context, linkID string) ([]json.RawMessage, error)
	AccountDetail(ctx context.Context, linkID, accountID string) (domain.Account, error)
	RegisterTransactions(ctx context.Context, linkID, dateFrom, dateTo string) error
	Transactions(ctx context.Context, linkID, accountID string) ([]domain.Transaction, error)
	CreateLink(ctx context.Context, payload map[string]any) (domain.LinkPage, error)
}

// HTTPClient is the default HTTP implementation.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	secretID   string
	secret     string
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient constructs the default provider client. The provider
// authenticates requests with HTTP basic auth.
func NewHTTPClient(client *http.Client, baseURL, secretID, secret string) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		httpClient: client,
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretID:   secretID,
		secret:     secret,
	}
}

type pagedResponse struct {
	Count    int               `json:"count"`
	Next     string            `json:"next"`
	Previous string            `json:"previous"`
	Results  []json.RawMessage `json:"results"`
}

// Institutions lists the institutions available through the provider.
func (c *HTTPClient) Institutions(ctx context.Context) ([]domain.Institution, error) {
	body, err := c.do(ctx, http.MethodGet, "institutions/", nil, nil)
	if err != nil {
		return nil, err
	}
	var page struct {
		Results []domain.Institution `json:"results"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode institutions: %w", err)
	}
	return page.Results, nil
}

// RegisterAccounts asks the provider to collect accounts for the link.
func (c *HTTPClient) RegisterAccounts(ctx context.Context, linkID string) error {
	_, err := c.do(ctx, http.MethodPost, "accounts/", nil, map[string]any{
		"link":      linkID,
		"save_data": true,
	})
	return err
}

// Accounts returns the raw provider account payloads for a link.
func (c *HTTPClient) Accounts(ctx context.Context, linkID string) ([]json.RawMessage, error) {
	query := url.Values{}
	query.Set("link", linkID)
	body, err := c.do(ctx, http.MethodGet, "accounts/", query, nil)
	if err != nil {
		return nil, err
	}
	var page pagedResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	return page.Results, nil
}

// AccountDetail loads a single account.
func (c *HTTPClient) AccountDetail(ctx context.Context, linkID, accountID string) (domain.Account, error) {
	query := url.Values{}
	query.Set("link", linkID)
	body, err := c.do(ctx, http.MethodGet, "accounts/"+accountID+"/", query, nil)
	if err != nil {
		return domain.Account{}, err
	}
	var account domain.Account
	if err := json.Unmarshal(body, &account); err != nil {
		return domain.Account{}, fmt.Errorf("decode account: %w", err)
	}
	return account, nil
}

// RegisterTransactions asks the provider to collect transactions in the
// date window for the link.
func (c *HTTPClient) RegisterTransactions(ctx context.Context, linkID, dateFrom, dateTo string) error {
	_, err := c.do(ctx, http.MethodPost, "transactions/", nil, map[string]any{
		"link":      linkID,
		"save_data": true,
		"date_from": dateFrom,
		"date_to":   dateTo,
	})
	return err
}

// Transactions returns collected transactions for an account.
func (c *HTTPClient) Transactions(ctx context.Context, linkID, accountID string) ([]domain.Transaction, error) {
	query := url.Values{}
	query.Set("link", linkID)
	query.Set("account", accountID)
	query.Set("page_size", "100")
	body, err := c.do(ctx, http.MethodGet, "transactions/", query, nil)
	if err != nil {
		return nil, err
	}
	var page struct {
		Results []domain.Transaction `json:"results"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	return page.Results, nil
}

// CreateLink registers a new link with the provider. The provider answers
// either with a single link object or a paginated envelope; both shapes are
// normalized to a LinkPage.
func (c *HTTPClient) CreateLink(ctx context.Context, payload map[string]any) (domain.LinkPage, error) {
	body, err := c.do(ctx, http.MethodPost, "links/", nil, payload)
	if err != nil {
		return domain.LinkPage{}, err
	}

	var probe struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && probe.Results != nil {
		var page domain.LinkPage
		if err := json.Unmarshal(body, &page); err != nil {
			return domain.LinkPage{}, fmt.Errorf("decode link page: %w", err)
		}
		return page, nil
	}

	var link domain.Link
	if err := json.Unmarshal(body, &link); err != nil {
		return domain.LinkPage{}, fmt.Errorf("decode link: %w", err)
	}
	return domain.LinkPage{Count: 1, Results: []domain.Link{link}}, nil
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, query url.Values, payload any) (json.RawMessage, error) {
	u := c.baseURL + "/api/" + endpoint
	if len(query) > 0 {
		u = u + "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.secretID, c.secret)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read provider response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &ProviderError{Status: resp.StatusCode, Detail: errorDetail(body)}
	}
	return body, nil
}

// errorDetail extracts a human-readable message from a provider error body,
// which is either {"detail": ...} or a list of {"message": ...} entries.
func errorDetail(body []byte) string {
	var object struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &object); err == nil && object.Detail != "" {
		return object.Detail
	}

	var list []struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 && list[0].Message != "" {
		return list[0].Message
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "provider request failed"
	}
	return trimmed
}

package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andeslabs/bancora/internal/adapter/bank"
	"github.com/andeslabs/bancora/internal/domain"
	"github.com/andeslabs/bancora/internal/service"
)

func newTestBankService(provider *fakeProviderClient) (*service.BankService, *memoryCache) {
	cache := newMemoryCache()
	defaults := bank.LinkDefaults{
		BankUsername:       "user123",
		BankPassword:       "pass123",
		EmploymentDocument: "DOC123",
		EmploymentEmail:    "default@example.com",
		EmploymentPassword: "pass123",
		FiscalRFC:          "XAXX010101000",
		FiscalPassword:     "pass123",
	}
	return service.NewBankService(provider, cache, 5*time.Minute, defaults, zap.NewNop()), cache
}

func TestBalanceComputesKPIFromTransactions(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProviderClient{
		transactions: []domain.Transaction{
			{ID: "t1", Amount: 100.10, Type: domain.TransactionInflow},
			{ID: "t2", Amount: 40.05, Type: domain.TransactionOutflow},
			{ID: "t3", Amount: 0.01, Type: domain.TransactionInflow},
		},
	}
	svc, _ := newTestBankService(provider)

	kpi, err := svc.Balance(ctx, "link-1", "acct-1")
	require.NoError(t, err)
	require.Equal(t, "100.11", kpi.TotalIncome)
	require.Equal(t, "40.05", kpi.TotalExpenses)
	require.Equal(t, "60.06", kpi.NetBalance)
}

func TestBalanceNegativeNet(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProviderClient{
		transactions: []domain.Transaction{
			{ID: "t1", Amount: 10, Type: domain.TransactionInflow},
			{ID: "t2", Amount: 25.50, Type: domain.TransactionOutflow},
		},
	}
	svc, _ := newTestBankService(provider)

	kpi, err := svc.Balance(ctx, "link-1", "acct-1")
	require.NoError(t, err)
	require.Equal(t, "-15.50", kpi.NetBalance)
}

func TestAccountsCachesProviderPayloads(t *testing.T) {
	ctx := context.Background()
	raw, _ := json.Marshal(map[string]any{
		"id":          "acct-1",
		"name":        "Checking",
		"institution": map[string]any{"id": 97, "name": "bancomer_mx", "icon_logo": "https://cdn/x.png"},
	})
	provider := &fakeProviderClient{accounts: []json.RawMessage{raw}}
	svc, _ := newTestBankService(provider)

	first, err := svc.Accounts(ctx, "link-1")
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, provider.accountCalls)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(first[0], &decoded))
	inst := decoded["institution"].(map[string]any)
	require.EqualValues(t, 0, inst["id"])
	require.Equal(t, "", inst["icon_logo"])
	require.Equal(t, "link-1", inst["link_id"])

	// Second read is served from the cache.
	second, err := svc.Accounts(ctx, "link-1")
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, 1, provider.accountCalls)
}

func TestTransactionReportIncludesAccountInfo(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProviderClient{
		transactions: []domain.Transaction{
			{ID: "t1", Amount: 5, Type: domain.TransactionInflow},
		},
		accountDetail: domain.Account{ID: "acct-1", Name: "Checking", Currency: "MXN"},
	}
	svc, _ := newTestBankService(provider)

	report, err := svc.TransactionReport(ctx, "link-1", "acct-1", "", "")
	require.NoError(t, err)
	require.Len(t, report.Transactions, 1)
	require.Equal(t, "5.00", report.KPI.TotalIncome)
	require.Equal(t, "acct-1", report.AccountInfo.ID)
}

func TestCreateLinkRejectsUnknownInstitution(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProviderClient{
		institutions: []domain.Institution{{Name: "bancomer_mx", Type: "bank"}},
	}
	svc, _ := newTestBankService(provider)

	_, err := svc.CreateLink(ctx, "unknown_bank", map[string]string{})
	var apiErr *service.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 400, apiErr.Status)
}

func TestCreateLinkAppliesDefaultCredentials(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProviderClient{
		institutions: []domain.Institution{{Name: "imss_mx", Type: "employment"}},
		linkPage:     domain.LinkPage{Count: 1, Results: []domain.Link{{ID: "l-1", Institution: "imss_mx"}}},
	}
	svc, _ := newTestBankService(provider)

	page, err := svc.CreateLink(ctx, "imss_mx", map[string]string{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Count)

	require.Equal(t, "imss_mx", provider.lastLinkPayload["institution"])
	require.Equal(t, "DOC123", provider.lastLinkPayload["username"])
	require.Equal(t, "default@example.com", provider.lastLinkPayload["username2"])
	require.Equal(t, "pass123", provider.lastLinkPayload["password"])
}

type fakeProviderClient struct {
	institutions    []domain.Institution
	accounts        []json.RawMessage
	accountDetail   domain.Account
	transactions    []domain.Transaction
	linkPage        domain.LinkPage
	lastLinkPayload map[string]any
	accountCalls    int
}

func (f *fakeProviderClient) Institutions(ctx context.Context) ([]domain.Institution, error) {
	return f.institutions, nil
}

func (f *fakeProviderClient) RegisterAccounts(ctx context.Context, linkID string) error {
	return nil
}

func (f *fakeProviderClient) Accounts(ctx context.Context, linkID string) ([]json.RawMessage, error) {
	f.accountCalls++
	return f.accounts, nil
}

func (f *fakeProviderClient) AccountDetail(ctx context.Context, linkID, accountID string) (domain.Account, error) {
	return f.accountDetail, nil
}

func (f *fakeProviderClient) RegisterTransactions(ctx context.Context, linkID, dateFrom, dateTo string) error {
	return nil
}

func (f *fakeProviderClient) Transactions(ctx context.Context, linkID, accountID string) ([]domain.Transaction, error) {
	return f.transactions, nil
}

func (f *fakeProviderClient) CreateLink(ctx context.Context, payload map[string]any) (domain.LinkPage, error) {
	f.lastLinkPayload = payload
	return f.linkPage, nil
}

type memoryCache struct {
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	return m.entries[key], nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.entries[key] = value
	return nil
}

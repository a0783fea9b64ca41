package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/andeslabs/bancora/internal/adapter/bank"
	"github.com/andeslabs/bancora/internal/domain"
	"github.com/andeslabs/bancora/internal/repository"
)

const transactionWindowDays = 90

// BankService aggregates provider data: institutions, linked accounts,
// transactions and derived balance metrics. Provider reads are cached in
// the shared key-value backend; the cache is advisory, so cache failures
// are logged and the provider is consulted directly.
type BankService struct {
	provider bank.Client
	cache    repository.ResponseCache
	cacheTTL time.Duration
	defaults bank.LinkDefaults
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewBankService wires dependencies.
func NewBankService(provider bank.Client, cache repository.ResponseCache, cacheTTL time.Duration, defaults bank.LinkDefaults, logger *zap.Logger) *BankService {
	return &BankService{
		provider: provider,
		cache:    cache,
		cacheTTL: cacheTTL,
		defaults: defaults,
		logger:   logger,
		tracer:   otel.Tracer("github.com/andeslabs/bancora/internal/service"),
	}
}

// Institutions lists the institutions available through the provider.
func (s *BankService) Institutions(ctx context.Context) ([]domain.Institution, error) {
	ctx, span := s.tracer.Start(ctx, "BankService.Institutions")
	defer span.End()
	return s.provider.Institutions(ctx)
}

// Accounts returns the accounts linked under linkID. Raw provider payloads
// are cached; responses have provider-internal institution identifiers
// blanked out and the owning link attached.
func (s *BankService) Accounts(ctx context.Context, linkID string) ([]json.RawMessage, error) {
	ctx, span := s.tracer.Start(ctx, "BankService.Accounts")
	defer span.End()

	cacheKey := "accounts:" + linkID
	if cached := s.cachedList(ctx, cacheKey); len(cached) > 0 {
		return transformAccounts(cached, linkID)
	}

	if err := s.provider.RegisterAccounts(ctx, linkID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	accounts, err := s.provider.Accounts(ctx, linkID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(accounts) == 0 {
		return []json.RawMessage{}, nil
	}

	s.storeList(ctx, cacheKey, accounts)
	return transformAccounts(accounts, linkID)
}

// TransactionReport returns the account's transactions alongside derived
// balance metrics and the account detail.
func (s *BankService) TransactionReport(ctx context.Context, linkID, accountID, dateFrom, dateTo string) (domain.TransactionReport, error) {
	ctx, span := s.tracer.Start(ctx, "BankService.TransactionReport")
	defer span.End()

	transactions, err := s.transactions(ctx, linkID, accountID, dateFrom, dateTo)
	if err != nil {
		span.RecordError(err)
		return domain.TransactionReport{}, err
	}

	account, err := s.provider.AccountDetail(ctx, linkID, accountID)
	if err != nil {
		span.RecordError(err)
		return domain.TransactionReport{}, err
	}

	return domain.TransactionReport{
		Transactions: transactions,
		KPI:          computeKPI(transactions),
		AccountInfo:  account,
	}, nil
}

// Balance computes the income/expense/net metrics for an account.
func (s *BankService) Balance(ctx context.Context, linkID, accountID string) (domain.BalanceKPI, error) {
	ctx, span := s.tracer.Start(ctx, "BankService.Balance")
	defer span.End()

	transactions, err := s.transactions(ctx, linkID, accountID, "", "")
	if err != nil {
		span.RecordError(err)
		return domain.BalanceKPI{}, err
	}
	return computeKPI(transactions), nil
}

// CreateLink registers a provider link for the institution, filling in the
// configured default credentials where the caller omitted them.
func (s *BankService) CreateLink(ctx context.Context, institution string, credentials map[string]string) (domain.LinkPage, error) {
	ctx, span := s.tracer.Start(ctx, "BankService.CreateLink")
	defer span.End()

	institutions, err := s.provider.Institutions(ctx)
	if err != nil {
		span.RecordError(err)
		return domain.LinkPage{}, err
	}
	if !knownInstitution(institution, institutions) {
		return domain.LinkPage{}, newAPIError(400, "Invalid institution")
	}

	payload, err := bank.NewLinkPayload(institution, credentials, institutions, s.defaults)
	if err != nil {
		return domain.LinkPage{}, newAPIError(400, err.Error())
	}

	page, err := s.provider.CreateLink(ctx, payload)
	if err != nil {
		span.RecordError(err)
		return domain.LinkPage{}, err
	}
	s.logger.Info("link created", zap.String("institution", institution), zap.Int("count", page.Count))
	return page, nil
}

func (s *BankService) transactions(ctx context.Context, linkID, accountID, dateFrom, dateTo string) ([]domain.Transaction, error) {
	cacheKey := "transactions:" + linkID + ":" + accountID
	if payload, err := s.cache.Get(ctx, cacheKey); err != nil {
		s.logger.Warn("transaction cache read failed", zap.Error(err))
	} else if len(payload) > 0 {
		var cached []domain.Transaction
		if err := json.Unmarshal(payload, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	if dateFrom == "" || dateTo == "" {
		today := time.Now()
		if dateFrom == "" {
			dateFrom = today.AddDate(0, 0, -transactionWindowDays).Format("2006-01-02")
		}
		if dateTo == "" {
			dateTo = today.Format("2006-01-02")
		}
	}

	if err := s.provider.RegisterTransactions(ctx, linkID, dateFrom, dateTo); err != nil {
		return nil, err
	}
	transactions, err := s.provider.Transactions(ctx, linkID, accountID)
	if err != nil {
		return nil, err
	}

	if len(transactions) > 0 {
		if payload, err := json.Marshal(transactions); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL); err != nil {
				s.logger.Warn("transaction cache write failed", zap.Error(err))
			}
		}
	}
	return transactions, nil
}

func (s *BankService) cachedList(ctx context.Context, key string) []json.RawMessage {
	payload, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache read failed", zap.Error(err), zap.String("key", key))
		return nil
	}
	if len(payload) == 0 {
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(payload, &list); err != nil {
		return nil
	}
	return list
}

func (s *BankService) storeList(ctx context.Context, key string, list []json.RawMessage) {
	payload, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
		s.logger.Warn("cache write failed", zap.Error(err), zap.String("key", key))
	}
}

// computeKPI sums inflows and outflows in integer cents to keep the
// arithmetic exact, then renders fixed-point decimal strings.
func computeKPI(transactions []domain.Transaction) domain.BalanceKPI {
	var income, expenses int64
	for _, tx := range transactions {
		cents := int64(math.Round(tx.Amount * 100))
		if tx.Type == domain.TransactionInflow {
			income += cents
		} else {
			expenses += cents
		}
	}
	return domain.BalanceKPI{
		TotalIncome:   formatCents(income),
		TotalExpenses: formatCents(expenses),
		NetBalance:    formatCents(income - expenses),
	}
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func transformAccounts(accounts []json.RawMessage, linkID string) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(accounts))
	for _, raw := range accounts {
		var account map[string]any
		if err := json.Unmarshal(raw, &account); err != nil {
			return nil, fmt.Errorf("decode account payload: %w", err)
		}
		if inst, ok := account["institution"].(map[string]any); ok {
			inst["id"] = 0
			inst["icon_logo"] = ""
			inst["link_id"] = linkID
		}
		encoded, err := json.Marshal(account)
		if err != nil {
			return nil, fmt.Errorf("encode account payload: %w", err)
		}
		out = append(out, encoded)
	}
	return out, nil
}

func knownInstitution(name string, institutions []domain.Institution) bool {
	for _, inst := range institutions {
		if inst.Name == name {
			return true
		}
	}
	return false
}

package domain

import "encoding/json"

// Institution describes a banking institution exposed by the data provider.
type Institution struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	LinkID   string `json:"link_id,omitempty"`
	IconLogo string `json:"icon_logo,omitempty"`
}

// AccountBalance holds the provider-reported balance figures.
type AccountBalance struct {
	Current   float64 `json:"current"`
	Available float64 `json:"available"`
}

// Account is a linked bank account as returned by the provider.
type Account struct {
	ID          string          `json:"id"`
	Link        string          `json:"link"`
	Institution json.RawMessage `json:"institution,omitempty"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Agency      string          `json:"agency,omitempty"`
	Number      string          `json:"number,omitempty"`
	Balance     AccountBalance  `json:"balance"`
	Category    string          `json:"category"`
	Currency    string          `json:"currency"`
	CreatedAt   string          `json:"created_at,omitempty"`
	CollectedAt string          `json:"collected_at,omitempty"`
}

// Transaction direction markers used by the provider.
const (
	TransactionInflow  = "INFLOW"
	TransactionOutflow = "OUTFLOW"
)

// Transaction is a single account movement.
type Transaction struct {
	ID          string          `json:"id"`
	Account     json.RawMessage `json:"account,omitempty"`
	CreatedAt   string          `json:"created_at,omitempty"`
	CollectedAt string          `json:"collected_at,omitempty"`
	ValueDate   string          `json:"value_date"`
	Amount      float64         `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Subcategory string          `json:"subcategory,omitempty"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	Merchant    json.RawMessage `json:"merchant,omitempty"`
}

// BalanceKPI aggregates income, expenses and net balance across a set of
// transactions. Figures are formatted as fixed-point decimal strings.
type BalanceKPI struct {
	TotalIncome   string `json:"total_income"`
	TotalExpenses string `json:"total_expenses"`
	NetBalance    string `json:"net_balance"`
}

// Link is a provider connection to an institution on behalf of a user.
type Link struct {
	ID                string   `json:"id"`
	Institution       string   `json:"institution"`
	AccessMode        string   `json:"access_mode"`
	Status            string   `json:"status"`
	RefreshRate       string   `json:"refresh_rate,omitempty"`
	CreatedBy         string   `json:"created_by,omitempty"`
	LastAccessedAt    string   `json:"last_accessed_at,omitempty"`
	ExternalID        string   `json:"external_id,omitempty"`
	CreatedAt         string   `json:"created_at,omitempty"`
	InstitutionUserID string   `json:"institution_user_id,omitempty"`
	CredentialStorage string   `json:"credentials_storage,omitempty"`
	StaleIn           string   `json:"stale_in,omitempty"`
	FetchResources    []string `json:"fetch_resources,omitempty"`
}

// LinkPage is the paginated provider response for link creation/listing.
type LinkPage struct {
	Count    int    `json:"count"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
	Results  []Link `json:"results"`
}

// TransactionReport bundles transactions with derived metrics and the
// owning account detail.
type TransactionReport struct {
	Transactions []Transaction `json:"transactions"`
	KPI          BalanceKPI    `json:"kpi"`
	AccountInfo  Account       `json:"account_info"`
}

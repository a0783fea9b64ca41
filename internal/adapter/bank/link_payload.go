package bank

import (
	"fmt"
	"strings"

	"github.com/andeslabs/bancora/internal/domain"
)

// Institution categories the provider distinguishes when building link
// credentials.
const (
	institutionTypeBank       = "bank"
	institutionTypeEmployment = "employment"
	institutionTypeFiscal     = "fiscal"
)

// Username types accepted by institutions that require one.
const (
	usernameTypeCPF  = "999"
	usernameTypeCNPJ = "003"
)

// institutionsWithUsernameType maps institutions that require an explicit
// username_type to their accepted values.
var institutionsWithUsernameType = map[string][]string{
	"ironbank_br_business": {usernameTypeCPF, usernameTypeCNPJ},
	"ironbank_br_retail":   {usernameTypeCPF, usernameTypeCNPJ},
}

// LinkDefaults supplies fallback credentials per institution type when the
// caller omits them.
type LinkDefaults struct {
	BankUsername       string
	BankPassword       string
	EmploymentDocument string
	EmploymentEmail    string
	EmploymentPassword string
	FiscalRFC          string
	FiscalPassword     string
}

// NewLinkPayload builds the provider payload for creating a link, shaped by
// the institution's type. Credentials missing from the request fall back to
// the configured defaults.
func NewLinkPayload(institution string, credentials map[string]string, institutions []domain.Institution, defaults LinkDefaults) (map[string]any, error) {
	payload := map[string]any{
		"institution": institution,
		"access_mode": "single",
	}

	if allowed, ok := institutionsWithUsernameType[institution]; ok {
		usernameType := credentials["username_type"]
		if usernameType == "" {
			usernameType = usernameTypeCPF
		}
		if !contains(allowed, usernameType) {
			return nil, fmt.Errorf("invalid username_type, allowed: %s", strings.Join(allowed, ", "))
		}
		payload["username_type"] = usernameType
	}

	switch institutionType(institution, institutions) {
	case institutionTypeEmployment:
		payload["username"] = valueOr(credentials["document_id"], defaults.EmploymentDocument)
		payload["username2"] = valueOr(credentials["email"], defaults.EmploymentEmail)
		payload["password"] = valueOr(credentials["password"], defaults.EmploymentPassword)
	case institutionTypeFiscal:
		payload["username"] = valueOr(credentials["rfc"], defaults.FiscalRFC)
		payload["password"] = valueOr(credentials["password"], defaults.FiscalPassword)
		if email := credentials["email"]; email != "" {
			payload["username2"] = email
		}
	default:
		payload["username"] = valueOr(credentials["username"], defaults.BankUsername)
		payload["password"] = valueOr(credentials["password"], defaults.BankPassword)
	}

	return payload, nil
}

func institutionType(name string, institutions []domain.Institution) string {
	for _, inst := range institutions {
		if inst.Name == name {
			return inst.Type
		}
	}
	return institutionTypeBank
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func valueOr(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

package bank_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andeslabs/bancora/internal/adapter/bank"
	"github.com/andeslabs/bancora/internal/domain"
)

var testInstitutions = []domain.Institution{
	{Name: "bancomer_mx", Type: "bank"},
	{Name: "imss_mx", Type: "employment"},
	{Name: "sat_mx", Type: "fiscal"},
	{Name: "ironbank_br_retail", Type: "bank"},
}

var testDefaults = bank.LinkDefaults{
	BankUsername:       "bank-user",
	BankPassword:       "bank-pass",
	EmploymentDocument: "EMP-DOC",
	EmploymentEmail:    "emp@example.com",
	EmploymentPassword: "emp-pass",
	FiscalRFC:          "XAXX010101000",
	FiscalPassword:     "fiscal-pass",
}

func TestNewLinkPayloadBank(t *testing.T) {
	payload, err := bank.NewLinkPayload("bancomer_mx", map[string]string{
		"username": "juan",
		"password": "secreto",
	}, testInstitutions, testDefaults)
	require.NoError(t, err)

	require.Equal(t, "bancomer_mx", payload["institution"])
	require.Equal(t, "single", payload["access_mode"])
	require.Equal(t, "juan", payload["username"])
	require.Equal(t, "secreto", payload["password"])
	require.NotContains(t, payload, "username2")
	require.NotContains(t, payload, "username_type")
}

func TestNewLinkPayloadEmploymentDefaults(t *testing.T) {
	payload, err := bank.NewLinkPayload("imss_mx", map[string]string{}, testInstitutions, testDefaults)
	require.NoError(t, err)

	require.Equal(t, "EMP-DOC", payload["username"])
	require.Equal(t, "emp@example.com", payload["username2"])
	require.Equal(t, "emp-pass", payload["password"])
}

func TestNewLinkPayloadFiscal(t *testing.T) {
	payload, err := bank.NewLinkPayload("sat_mx", map[string]string{
		"rfc": "ABC010101XYZ",
	}, testInstitutions, testDefaults)
	require.NoError(t, err)

	require.Equal(t, "ABC010101XYZ", payload["username"])
	require.Equal(t, "fiscal-pass", payload["password"])
	require.NotContains(t, payload, "username2")

	withEmail, err := bank.NewLinkPayload("sat_mx", map[string]string{
		"email": "fiscal@example.com",
	}, testInstitutions, testDefaults)
	require.NoError(t, err)
	require.Equal(t, "fiscal@example.com", withEmail["username2"])
}

func TestNewLinkPayloadUsernameType(t *testing.T) {
	payload, err := bank.NewLinkPayload("ironbank_br_retail", map[string]string{}, testInstitutions, testDefaults)
	require.NoError(t, err)
	require.Equal(t, "999", payload["username_type"])

	payload, err = bank.NewLinkPayload("ironbank_br_retail", map[string]string{
		"username_type": "003",
	}, testInstitutions, testDefaults)
	require.NoError(t, err)
	require.Equal(t, "003", payload["username_type"])

	_, err = bank.NewLinkPayload("ironbank_br_retail", map[string]string{
		"username_type": "042",
	}, testInstitutions, testDefaults)
	require.Error(t, err)
}

func TestNewLinkPayloadUnknownInstitutionFallsBackToBank(t *testing.T) {
	payload, err := bank.NewLinkPayload("mystery_mx", map[string]string{}, testInstitutions, testDefaults)
	require.NoError(t, err)
	require.Equal(t, "bank-user", payload["username"])
	require.Equal(t, "bank-pass", payload["password"])
}

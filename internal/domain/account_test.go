package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccount(t *testing.T) {
	body := `{
		"name": "John Doe",
		"email": "john@doe.com",
		"address": "123 Main St",
		"phone_number": "555-1212",
		"date_joined": "2024-01-15"
	}`

	account, err := ParseAccount(strings.NewReader(body))
	require.NoError(t, err)

	assert.Equal(t, "John Doe", account.Name)
	assert.Equal(t, "john@doe.com", account.Email)
	assert.Equal(t, "123 Main St", account.Address)
	assert.Equal(t, "555-1212", account.PhoneNumber)
	assert.Equal(t, "2024-01-15", account.DateJoined.Format("2006-01-02"))
}

func TestParseAccountIgnoresID(t *testing.T) {
	body := `{
		"id": 42,
		"name": "John Doe",
		"email": "john@doe.com",
		"address": "123 Main St",
		"phone_number": "555-1212"
	}`

	account, err := ParseAccount(strings.NewReader(body))
	require.NoError(t, err)
	assert.Zero(t, account.ID)
}

func TestParseAccountRejectsNonObjectBody(t *testing.T) {
	for name, body := range map[string]string{
		"array":  `[]`,
		"string": `"john"`,
		"number": `17`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAccount(strings.NewReader(body))
			require.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), "body must be a JSON object")
		})
	}
}

func TestParseAccountRejectsMalformedJSON(t *testing.T) {
	_, err := ParseAccount(strings.NewReader(`{"name": "John"`))
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "malformed JSON")
}

func TestParseAccountMissingFields(t *testing.T) {
	body := `{"email": "john@doe.com", "address": "123 Main St"}`

	_, err := ParseAccount(strings.NewReader(body))
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "missing required fields")
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "phone_number")
	assert.NotContains(t, err.Error(), "email")
}

func TestParseAccountBadDate(t *testing.T) {
	body := `{
		"name": "John Doe",
		"email": "john@doe.com",
		"address": "123 Main St",
		"phone_number": "555-1212",
		"date_joined": "15/01/2024"
	}`

	_, err := ParseAccount(strings.NewReader(body))
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestParseAccountNonStringDate(t *testing.T) {
	body := `{
		"name": "John Doe",
		"email": "john@doe.com",
		"address": "123 Main St",
		"phone_number": "555-1212",
		"date_joined": 20240115
	}`

	_, err := ParseAccount(strings.NewReader(body))
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "date_joined must be a string")
}

func TestApplyDefaultsFillsDateJoined(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)

	account := Account{Name: "John"}
	account.ApplyDefaults(now)
	assert.Equal(t, "2024-03-15", account.DateJoined.Format("2006-01-02"))
}

func TestApplyDefaultsKeepsExistingDate(t *testing.T) {
	account := Account{DateJoined: NewDate(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))}
	account.ApplyDefaults(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2020-01-01", account.DateJoined.Format("2006-01-02"))
}

func TestDateMarshalJSON(t *testing.T) {
	d := NewDate(time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC))

	data, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-15"`, string(data))
}

func TestDateScan(t *testing.T) {
	var d Date

	require.NoError(t, d.Scan(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03-15", d.Format("2006-01-02"))

	require.NoError(t, d.Scan("2021-07-04"))
	assert.Equal(t, "2021-07-04", d.Format("2006-01-02"))

	require.NoError(t, d.Scan([]byte("1999-12-31")))
	assert.Equal(t, "1999-12-31", d.Format("2006-01-02"))

	assert.Error(t, d.Scan(42))
}

func TestDateValue(t *testing.T) {
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	value, err := NewDate(day).Value()
	require.NoError(t, err)
	assert.Equal(t, day, value)
}

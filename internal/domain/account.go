package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrValidation indicates a request payload that cannot become an Account.
var ErrValidation = errors.New("invalid account payload")

const dateLayout = "2006-01-02"

// Date is a calendar day. It marshals to and from "YYYY-MM-DD" strings and
// maps onto a SQL DATE column.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in UTC.
func NewDate(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// MarshalJSON renders the date as an ISO day string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

// UnmarshalJSON parses an ISO day string.
func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: date_joined must be a string", ErrValidation)
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return fmt.Errorf("%w: date_joined must be formatted YYYY-MM-DD", ErrValidation)
	}
	d.Time = parsed
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

// Scan implements sql.Scanner for DATE columns.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v)
		return nil
	case string:
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			return fmt.Errorf("scan date %q: %w", v, err)
		}
		d.Time = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
}

// Account is the managed resource. The id is assigned by the store on
// creation and never taken from the client.
type Account struct {
	ID          int64  `json:"id"`
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required"`
	Address     string `json:"address" validate:"required"`
	PhoneNumber string `json:"phone_number" validate:"required"`
	DateJoined  Date   `json:"date_joined"`
}

// ApplyDefaults fills server-assigned fields ahead of persistence.
func (a *Account) ApplyDefaults(now time.Time) {
	if a.DateJoined.IsZero() {
		a.DateJoined = NewDate(now)
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseAccount decodes a JSON object from r and validates the required
// fields. A body that is not an object (an array, say) and a body missing a
// required field both fail with an error wrapping ErrValidation; the two
// causes stay distinguishable in the message.
func ParseAccount(r io.Reader) (Account, error) {
	var account Account
	if err := json.NewDecoder(r).Decode(&account); err != nil {
		if errors.Is(err, ErrValidation) {
			return Account{}, err
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Account{}, fmt.Errorf("%w: body must be a JSON object", ErrValidation)
		}
		return Account{}, fmt.Errorf("%w: malformed JSON", ErrValidation)
	}
	// An explicit id in the body is ignored; the store assigns ids.
	account.ID = 0
	if err := validate.Struct(&account); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			missing := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				missing = append(missing, fe.Field())
			}
			return Account{}, fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
		}
		return Account{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return account, nil
}

package address

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mvaldez-dev/storefront-checkout/pkg/commerce"
	pkgerrors "github.com/mvaldez-dev/storefront-checkout/pkg/errors"
)

// Mode selects the source of the shipping address for one checkout
// attempt. The two modes are mutually exclusive.
type Mode string

const (
	ModeSelected Mode = "selected"
	ModeManual   Mode = "manual"
)

type addressLister interface {
	ListAddresses(ctx context.Context) ([]commerce.AddressRecord, error)
}

// Fields are the manually entered shipping-address fields.
type Fields struct {
	AddressLine string `json:"addressLine" validate:"required"`
	City        string `json:"city" validate:"required"`
	PostalCode  string `json:"postalCode" validate:"required"`
}

// Contact holds the order contact data; mandatory in every mode.
type Contact struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,len=10,numeric"`
}

// Input selects either a stored address record or manual fields.
type Input struct {
	Mode      Mode
	AddressID string
	Fields    Fields
	Contact   Contact
}

// Resolution is the validated shipping address ready for submission.
type Resolution struct {
	AddressID   string
	AddressLine string
	City        string
	PostalCode  string
	Contact     Contact
}

// Canonical renders the deterministic submission string. Field order and
// delimiter are fixed; downstream order display depends on them.
func (r *Resolution) Canonical() string {
	return fmt.Sprintf("%s, %s, %s", r.AddressLine, r.PostalCode, r.City)
}

// Resolver validates address selections and manual entries.
type Resolver struct {
	addresses addressLister
	validate  *validator.Validate
}

// NewResolver builds an address resolver over the commerce address book.
func NewResolver(addresses addressLister) (*Resolver, error) {
	if addresses == nil {
		return nil, fmt.Errorf("address lister required")
	}
	return &Resolver{addresses: addresses, validate: newValidator()}, nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Resolve produces the canonical shipping address for one checkout
// attempt, collecting every field violation instead of stopping at the
// first.
func (r *Resolver) Resolve(ctx context.Context, input Input) (*Resolution, error) {
	switch input.Mode {
	case ModeSelected:
		return r.resolveSelected(ctx, input)
	case ModeManual:
		return r.resolveManual(input)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address mode must be selected or manual")
	}
}

func (r *Resolver) resolveSelected(ctx context.Context, input Input) (*Resolution, error) {
	if strings.TrimSpace(input.AddressID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required in selected mode")
	}

	fieldErrors := r.collectErrors(input.Contact)
	if len(fieldErrors) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(fieldErrors)
	}

	records, err := r.addresses.ListAddresses(ctx)
	if err != nil {
		return nil, err
	}
	var record *commerce.AddressRecord
	for i := range records {
		if records[i].AddressID == input.AddressID {
			record = &records[i]
			break
		}
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "selected address not found")
	}

	// The mirrored form fields are rendered read-only; an edited value
	// reaching this point means the stored record and the submission
	// diverged, which must never be sent silently.
	if mismatches := diffAgainstRecord(input.Fields, record); len(mismatches) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "edited fields do not match the selected address").
			WithDetails(mismatches)
	}

	return &Resolution{
		AddressID:   record.AddressID,
		AddressLine: record.Address,
		City:        record.City,
		PostalCode:  record.PostalCode,
		Contact:     input.Contact,
	}, nil
}

func (r *Resolver) resolveManual(input Input) (*Resolution, error) {
	fieldErrors := r.collectErrors(input.Fields)
	for field, msg := range r.collectErrors(input.Contact) {
		fieldErrors[field] = msg
	}
	if len(fieldErrors) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(fieldErrors)
	}

	return &Resolution{
		AddressLine: strings.TrimSpace(input.Fields.AddressLine),
		City:        strings.TrimSpace(input.Fields.City),
		PostalCode:  strings.TrimSpace(input.Fields.PostalCode),
		Contact:     input.Contact,
	}, nil
}

func (r *Resolver) collectErrors(value any) map[string]string {
	details := map[string]string{}
	err := r.validate.Struct(value)
	if err == nil {
		return details
	}
	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return details
	}
	details["_"] = err.Error()
	return details
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "numeric":
		return "must contain only digits"
	}
	return "is invalid"
}

func diffAgainstRecord(fields Fields, record *commerce.AddressRecord) map[string]string {
	mismatches := map[string]string{}
	check := func(name, supplied, stored string) {
		supplied = strings.TrimSpace(supplied)
		if supplied != "" && supplied != stored {
			mismatches[name] = "does not match the stored address"
		}
	}
	check("addressLine", fields.AddressLine, record.Address)
	check("city", fields.City, record.City)
	check("postalCode", fields.PostalCode, record.PostalCode)
	return mismatches
}

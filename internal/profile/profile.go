// Package profile holds the bank export layout table and the format detector
// that picks a layout for a CSV header. Layouts are plain data records; the
// parser never branches on a profile id.
package profile

import (
	"fmt"
	"strings"

	"fjacquet/budget-csv/internal/dateutils"
	"fjacquet/budget-csv/internal/models"
	"fjacquet/budget-csv/internal/textutils"
)

// Field is a logical transaction field a CSV column can map to.
type Field string

const (
	FieldDate        Field = "date"
	FieldAmount      Field = "amount"
	FieldDebit       Field = "debit"
	FieldCredit      Field = "credit"
	FieldMerchant    Field = "merchant"
	FieldDescription Field = "description"
	FieldType        Field = "type"

	// FieldMarker columns carry no data; they only identify a layout.
	FieldMarker Field = "marker"
)

// AmountSign describes how a single amount column encodes direction.
type AmountSign string

const (
	// SignStandard: negative is an expense, an explicit plus is income and an
	// unsigned value falls back to the profile default type.
	SignStandard AmountSign = ""

	// SignInverted: positive is an expense and negative is income, as in most
	// credit card exports.
	SignInverted AmountSign = "inverted"
)

// Column declares the header aliases of one logical field.
type Column struct {
	Field    Field    `yaml:"field"`
	Aliases  []string `yaml:"aliases"`
	Required bool     `yaml:"required"`
}

// Profile is one bank export layout.
type Profile struct {
	ID          string                            `yaml:"id"`
	Name        string                            `yaml:"name"`
	Priority    int                               `yaml:"priority"`
	Columns     []Column                          `yaml:"columns"`
	DateFormats []string                          `yaml:"date_formats"`
	DefaultType models.TransactionType            `yaml:"default_type"`
	AmountSign  AmountSign                        `yaml:"amount_sign"`
	TypeValues  map[string]models.TransactionType `yaml:"type_values"`

	layouts []string
}

// RequiredAliases returns the aliases of every required column.
func (p *Profile) RequiredAliases() []string {
	return p.aliases(true)
}

// OptionalAliases returns the aliases of every optional column.
func (p *Profile) OptionalAliases() []string {
	return p.aliases(false)
}

func (p *Profile) aliases(required bool) []string {
	var out []string
	for _, c := range p.Columns {
		if c.Required == required {
			out = append(out, c.Aliases...)
		}
	}
	return out
}

// Layouts returns the Go time layouts compiled from DateFormats.
func (p *Profile) Layouts() []string {
	return p.layouts
}

// DefaultTypeOrIncome returns the declared default type, or income.
func (p *Profile) DefaultTypeOrIncome() models.TransactionType {
	if p.DefaultType.Valid() {
		return p.DefaultType
	}
	return models.TypeIncome
}

// ResolveType maps a raw type-column value through TypeValues.
func (p *Profile) ResolveType(raw string) (models.TransactionType, bool) {
	key := textutils.NormalizeHeader(raw)
	if key == "" {
		return "", false
	}
	for k, v := range p.TypeValues {
		if textutils.NormalizeHeader(k) == key {
			return v, true
		}
	}
	return "", false
}

func (p *Profile) has(field Field) bool {
	for _, c := range p.Columns {
		if c.Field == field {
			return true
		}
	}
	return false
}

// Validate checks that the profile can map a complete transaction and
// compiles its date formats.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("profile id is required")
	}
	if p.ID == models.GenericProfileID {
		return fmt.Errorf("profile id %q is reserved", p.ID)
	}
	if !p.has(FieldDate) {
		return fmt.Errorf("profile %s: no date column", p.ID)
	}
	if !p.has(FieldAmount) && !(p.has(FieldDebit) && p.has(FieldCredit)) {
		return fmt.Errorf("profile %s: needs an amount column or debit and credit columns", p.ID)
	}
	if !p.has(FieldMerchant) && !p.has(FieldDescription) {
		return fmt.Errorf("profile %s: needs a merchant or description column", p.ID)
	}
	for _, c := range p.Columns {
		if len(c.Aliases) == 0 {
			return fmt.Errorf("profile %s: column %s has no aliases", p.ID, c.Field)
		}
		switch c.Field {
		case FieldDate, FieldAmount, FieldDebit, FieldCredit, FieldMerchant, FieldDescription, FieldType, FieldMarker:
		default:
			return fmt.Errorf("profile %s: unknown field %q", p.ID, c.Field)
		}
	}
	if p.DefaultType != "" && !p.DefaultType.Valid() {
		return fmt.Errorf("profile %s: invalid default_type %q", p.ID, p.DefaultType)
	}
	for k, v := range p.TypeValues {
		if !v.Valid() {
			return fmt.Errorf("profile %s: type value %q maps to invalid type %q", p.ID, k, v)
		}
	}
	if p.AmountSign != SignStandard && p.AmountSign != SignInverted {
		return fmt.Errorf("profile %s: invalid amount_sign %q", p.ID, p.AmountSign)
	}
	if len(p.DateFormats) == 0 {
		return fmt.Errorf("profile %s: no date_formats", p.ID)
	}

	p.layouts = make([]string, 0, len(p.DateFormats))
	for _, f := range p.DateFormats {
		layout, err := dateutils.PatternToLayout(f)
		if err != nil {
			return fmt.Errorf("profile %s: %w", p.ID, err)
		}
		p.layouts = append(p.layouts, layout)
	}
	return nil
}

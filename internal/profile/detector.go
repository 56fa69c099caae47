package profile

import (
	"fmt"
	"sort"
	"strings"

	"fjacquet/budget-csv/internal/dateutils"
	"fjacquet/budget-csv/internal/logging"
	"fjacquet/budget-csv/internal/models"
	"fjacquet/budget-csv/internal/parsererror"
	"fjacquet/budget-csv/internal/textutils"
)

var (
	dateKeywords     = []string{"date"}
	amountKeywords   = []string{"amount", "value", "sum"}
	debitKeywords    = []string{"debit", "withdrawal", "outflow", "money out", "paid out"}
	creditKeywords   = []string{"credit", "deposit", "inflow", "money in", "paid in"}
	merchantKeywords = []string{"merchant", "payee", "counterparty", "beneficiary", "name"}
	descKeywords     = []string{"description", "narrative", "details", "memo", "remarks", "particulars"}
	amountExclusions = []string{"date", "balance", "account"}
	textExclusions   = []string{"balance", "account", "date"}
	genericFormats   = []string{"YYYY-MM-DD", "MM/DD/YYYY", "MM/DD/YY", "YYYY/MM/DD", "DD-MM-YYYY", "DD.MM.YYYY"}
)

// Detection is the outcome of matching a header against the profile table.
type Detection struct {
	Profile *Profile

	// Columns maps every mapped logical field to its header index.
	Columns map[Field]int

	// DateLayouts is the profile's layouts ranked against the sampled dates.
	DateLayouts []string
}

// ProfileID returns the detected profile id, "generic" for the fallback.
func (d *Detection) ProfileID() string {
	return d.Profile.ID
}

// Index returns the header index of field.
func (d *Detection) Index(field Field) (int, bool) {
	i, ok := d.Columns[field]
	return i, ok
}

// Detector selects a profile for a CSV header. It is safe for concurrent use
// once constructed.
type Detector struct {
	profiles []*Profile
	generic  *Profile
	logger   logging.Logger
}

// NewDetector validates profiles and orders them by ascending Priority. Ties
// keep table order.
func NewDetector(profiles []Profile, logger logging.Logger) (*Detector, error) {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	ordered := make([]*Profile, 0, len(profiles))
	seen := make(map[string]bool, len(profiles))
	for i := range profiles {
		p := profiles[i]
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate profile id %q", p.ID)
		}
		seen[p.ID] = true
		ordered = append(ordered, &p)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	generic := &Profile{
		ID:          models.GenericProfileID,
		Name:        "Generic CSV",
		DateFormats: genericFormats,
		DefaultType: models.TypeIncome,
	}
	for _, f := range genericFormats {
		layout, err := dateutils.PatternToLayout(f)
		if err != nil {
			return nil, err
		}
		generic.layouts = append(generic.layouts, layout)
	}

	return &Detector{profiles: ordered, generic: generic, logger: logger}, nil
}

// Profiles returns the declared profiles in detection order.
func (d *Detector) Profiles() []Profile {
	out := make([]Profile, len(d.profiles))
	for i, p := range d.profiles {
		out[i] = *p
	}
	return out
}

// Detect picks the first declared profile whose required columns are all
// present in header, falling back to the generic profile. sample rows are
// used only to rank date layouts. An *parsererror.UnrecognizedFormatError is
// returned when even the generic profile cannot map the header.
func (d *Detector) Detect(header []string, sample [][]string) (*Detection, error) {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = textutils.NormalizeHeader(h)
	}

	for _, p := range d.profiles {
		if columns, ok := matchProfile(p, normalized); ok {
			detection := d.finish(p, columns, sample)
			d.logger.Debug("Detected CSV format",
				logging.F(logging.FieldProfile, p.ID),
				logging.F(logging.FieldCount, len(columns)))
			return detection, nil
		}
	}

	columns, reason := matchGeneric(normalized)
	if reason != "" {
		return nil, &parsererror.UnrecognizedFormatError{Header: header, Reason: reason}
	}
	d.logger.Debug("No bank profile matched, using generic mapping",
		logging.F(logging.FieldProfile, models.GenericProfileID))
	return d.finish(d.generic, columns, sample), nil
}

func (d *Detector) finish(p *Profile, columns map[Field]int, sample [][]string) *Detection {
	var dates []string
	if i, ok := columns[FieldDate]; ok {
		for _, row := range sample {
			if i < len(row) {
				dates = append(dates, row[i])
			}
		}
	}
	return &Detection{
		Profile:     p,
		Columns:     columns,
		DateLayouts: dateutils.RankLayouts(dates, p.layouts),
	}
}

func matchProfile(p *Profile, header []string) (map[Field]int, bool) {
	columns := make(map[Field]int, len(p.Columns))
	used := make(map[int]bool, len(p.Columns))

	for _, c := range p.Columns {
		idx := findAlias(header, c.Aliases, used)
		if idx < 0 {
			if c.Required {
				return nil, false
			}
			continue
		}
		used[idx] = true
		if c.Field != FieldMarker {
			if _, taken := columns[c.Field]; !taken {
				columns[c.Field] = idx
			}
		}
	}
	return columns, true
}

func findAlias(header, aliases []string, used map[int]bool) int {
	for _, alias := range aliases {
		want := textutils.NormalizeHeader(alias)
		for i, h := range header {
			if h == want && !used[i] {
				return i
			}
		}
	}
	return -1
}

// matchGeneric maps a header with keyword heuristics. It needs a date-like
// column, a debit/credit pair or a single amount-like column, and a merchant
// or description column.
func matchGeneric(header []string) (map[Field]int, string) {
	columns := make(map[Field]int)
	used := make(map[int]bool)

	take := func(field Field, idx int) bool {
		if idx < 0 {
			return false
		}
		columns[field] = idx
		used[idx] = true
		return true
	}

	if !take(FieldDate, findKeyword(header, dateKeywords, []string{"balance"}, used)) {
		return nil, "no date-like column"
	}

	debit := findKeyword(header, debitKeywords, amountExclusions, used)
	credit := findKeyword(header, creditKeywords, amountExclusions, used)
	if debit >= 0 && credit >= 0 && debit != credit {
		take(FieldDebit, debit)
		take(FieldCredit, credit)
	} else if !take(FieldAmount, findKeyword(header, amountKeywords, amountExclusions, used)) {
		return nil, "no amount-like column"
	}

	merchant := findKeyword(header, merchantKeywords, textExclusions, used)
	if merchant >= 0 {
		take(FieldMerchant, merchant)
		take(FieldDescription, findKeyword(header, descKeywords, textExclusions, used))
	} else if !take(FieldMerchant, findKeyword(header, descKeywords, textExclusions, used)) {
		return nil, "no merchant or description column"
	}

	return columns, ""
}

// findKeyword prefers an exact keyword match over a containing match, and
// earlier keywords over later ones. A containing match is rejected when the
// header also contains one of exclude.
func findKeyword(header, keywords, exclude []string, used map[int]bool) int {
	for _, kw := range keywords {
		for i, h := range header {
			if !used[i] && h == kw {
				return i
			}
		}
	}
	for _, kw := range keywords {
		for i, h := range header {
			if !used[i] && strings.Contains(h, kw) && !containsAny(h, exclude) {
				return i
			}
		}
	}
	return -1
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

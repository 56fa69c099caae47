// Package dedup flags incoming transactions that repeat stored history or an
// earlier row of the same batch. Matching is on an exact canonical key only;
// near-duplicates with different merchant text are deliberately not matched.
package dedup

import (
	"strconv"
	"strings"

	"fjacquet/budget-csv/internal/models"
	"fjacquet/budget-csv/internal/textutils"
)

// CanonicalKey returns "date|amount_cents|normalized merchant".
func CanonicalKey(t models.ParsedTransaction) string {
	return strings.Join([]string{
		t.Date,
		strconv.FormatInt(t.AmountCents, 10),
		textutils.NormalizeMerchant(t.Merchant),
	}, "|")
}

package patient

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// defaultRegion is assumed for numbers entered without a country code.
const defaultRegion = "IR"

// NormalizePhone canonicalizes a phone number to E.164 so that
// "0912 123 4567" and "+989121234567" dedup to the same identity key.
// Unparseable input falls back to a whitespace-stripped copy rather
// than failing: front desks type what patients dictate.
func NormalizePhone(raw string) string {
	num, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return strings.Join(strings.Fields(raw), "")
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

package normalize

import "strings"

var moneyNoise = strings.NewReplacer("$", "", ",", "")

// zeroAliases are the spellings VOB forms use for "no amount".
var zeroAliases = map[string]struct{}{
	"NONE":       {},
	"N/A":        {},
	"NA":         {},
	"NO IND DED": {},
	"NO FAM DED": {},
	"NO IND OOP": {},
	"NO FAM OOP": {},
}

// FinancialToken canonicalizes a captured deductible/out-of-pocket token.
// Any zero alias, or a token that reduces to "0" once currency symbols and
// thousands separators are removed, becomes "0". Everything else is returned
// as captured (trimmed), commas and currency symbol included.
func FinancialToken(token string) string {
	v := strings.TrimSpace(token)
	stripped := strings.TrimSpace(moneyNoise.Replace(v))
	if _, ok := zeroAliases[strings.ToUpper(stripped)]; ok {
		return "0"
	}
	if stripped == "0" {
		return "0"
	}
	return v
}

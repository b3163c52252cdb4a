package fields

import (
	"regexp"
	"strings"
)

// Field names
const (
	CURP     = "curp"
	RFC      = "rfc"
	NoCVU    = "no_cvu"
	Correo   = "correo"
	Telefono = "telefono"
)

// Grammars are syntactic only. No check digits or registry lookups.
var (
	// 4 letters, birth date, gender, 5 letters, homoclave, check digit
	curpPattern = regexp.MustCompile(`(?i)[A-Z]{4}\d{6}[HM][A-Z]{5}[A-Z0-9]\d`)

	// 3 letters for companies, 4 for individuals, date, homoclave.
	// Bounded so that the prefix of a CURP is not taken for an RFC.
	rfcPattern = regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}&])([A-ZÑ&]{3,4}\d{6}[A-Z0-9]{3})(?:$|[^\p{L}\p{N}])`)

	cvuPattern      = regexp.MustCompile(`(?i)CVU\s*:?\s*\d+`)
	correoPattern   = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`)
	telefonoPattern = regexp.MustCompile(`(?:^|\D)(\d{10})(?:\D|$)`)
)

// DefaultTable holds the identity fields of a researcher registration form
var DefaultTable = MustTable(
	Spec{Name: CURP, Pattern: curpPattern},
	Spec{Name: RFC, Pattern: rfcPattern},
	Spec{Name: NoCVU, Pattern: cvuPattern, PostProcess: stripLabel("CVU")},
	Spec{Name: Correo, Pattern: correoPattern},
	Spec{Name: Telefono, Pattern: telefonoPattern},
)

// stripLabel removes a leading label, its optional colon and surrounding space
func stripLabel(label string) func(string) string {
	return func(s string) string {
		if len(s) >= len(label) && strings.EqualFold(s[:len(label)], label) {
			s = s[len(label):]
		}
		s = strings.TrimSpace(s)
		s = strings.TrimPrefix(s, ":")
		return strings.TrimSpace(s)
	}
}

package importer

import (
	"regexp"
	"strconv"
	"strings"
)

const dniLetters = "TRWAGMYFPDXBNJZSQVHLCKE"

var (
	dniPattern = regexp.MustCompile(`^(\d{8})([A-Z])$`)
	niePattern = regexp.MustCompile(`^([XYZ])(\d{7})([A-Z])$`)
	cifPattern = regexp.MustCompile(`^([ABCDEFGHJNPQRSUVW])(\d{7})([0-9A-J])$`)
)

// ValidateSpanishNIF checks the control character of a DNI, NIE or CIF.
// Spaces and dashes are ignored.
func ValidateSpanishNIF(nif string) bool {
	clean := strings.ToUpper(strings.NewReplacer(" ", "", "-", "").Replace(nif))

	if m := dniPattern.FindStringSubmatch(clean); m != nil {
		n, _ := strconv.Atoi(m[1])
		return dniLetters[n%23] == m[2][0]
	}

	if m := niePattern.FindStringSubmatch(clean); m != nil {
		prefix := strings.IndexByte("XYZ", m[1][0])
		n, _ := strconv.Atoi(strconv.Itoa(prefix) + m[2])
		return dniLetters[n%23] == m[3][0]
	}

	if m := cifPattern.FindStringSubmatch(clean); m != nil {
		return cifControlMatches(m[1][0], m[2], m[3][0])
	}

	return false
}

// cifControlMatches verifies the CIF control character. Depending on the
// entity letter the control is a digit, a letter, or either.
func cifControlMatches(entity byte, digits string, control byte) bool {
	sum := 0
	for i := 0; i < len(digits); i++ {
		d := int(digits[i] - '0')
		if i%2 == 0 {
			d *= 2
			d = d/10 + d%10
		}
		sum += d
	}
	check := (10 - sum%10) % 10
	digit := byte('0' + check)
	letter := "JABCDEFGHI"[check]

	switch entity {
	case 'P', 'Q', 'R', 'S', 'N', 'W':
		return control == letter
	case 'A', 'B', 'E', 'H':
		return control == digit
	default:
		return control == digit || control == letter
	}
}

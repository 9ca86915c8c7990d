package assembler

import (
	"regexp"
	"strings"

	"github.com/aretw0/twsgraph/pkg/domain"
)

var netNamePattern = regexp.MustCompile(`NET - (.*?) -`)

// ExtractNetName returns the network name embedded in a file label, e.g.
// "NET - PAYROLL01 - Operazioni.csv" yields "PAYROLL01".
func ExtractNetName(label string) (string, error) {
	m := netNamePattern.FindStringSubmatch(label)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return "", &domain.NetNameError{Label: label}
	}
	return m[1], nil
}

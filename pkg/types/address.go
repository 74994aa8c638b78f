package types

import "strings"

// Address is the shipping destination collected during checkout. Vietnamese
// addressing is three-level: province, district, ward.
type Address struct {
	Line     string `json:"line"`
	Ward     string `json:"ward"`
	District string `json:"district"`
	Province string `json:"province"`
}

// Format renders the address as a single display string, skipping blanks.
func (a Address) Format() string {
	parts := make([]string, 0, 4)
	for _, part := range []string{a.Line, a.Ward, a.District, a.Province} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, ", ")
}

// IsComplete reports whether every required component is present.
func (a Address) IsComplete() bool {
	return strings.TrimSpace(a.Line) != "" &&
		strings.TrimSpace(a.Ward) != "" &&
		strings.TrimSpace(a.District) != "" &&
		strings.TrimSpace(a.Province) != ""
}

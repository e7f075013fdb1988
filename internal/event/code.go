package event

import (
	"regexp"
	"strings"
)

var (
	codePattern   = regexp.MustCompile(`^([A-Z])(\d{2})(?:\.?(\d{1,2}))?$`)
	embeddedCodes = regexp.MustCompile(`\b([A-Z]\d{2}(?:\.\d{1,2})?)\b`)
)

// NormalizeCode returns an ICD/KCD code in LNN or LNN.NN form, or "" when the
// input does not look like a code. "r102", "R10.2" and "R 10.2" all become
// "R10.2".
func NormalizeCode(raw string) string {
	s := strings.ToUpper(strings.Join(strings.Fields(raw), ""))
	s = strings.TrimSuffix(s, ".")
	m := codePattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	code := m[1] + m[2]
	if m[3] != "" {
		code += "." + m[3]
	}
	return code
}

// ExtractCode finds the first code embedded in free text such as
// "급성 충수염(K35.8)".
func ExtractCode(text string) string {
	m := embeddedCodes.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return NormalizeCode(m[1])
}

// CodeCategory returns the three-character category (e.g. "R10" for "R10.2").
func CodeCategory(code string) string {
	if len(code) < 3 {
		return code
	}
	return code[:3]
}

// CodeSystem returns the chapter letter of a code, "" when empty.
func CodeSystem(code string) string {
	if code == "" {
		return ""
	}
	return code[:1]
}

// HasSubcode reports whether the code carries a decimal sub-component.
func HasSubcode(code string) bool {
	return strings.Contains(code, ".")
}

package barcode

import "strings"

// Contact holds the card fields carried by a vCard or MeCard payload.
// Empty fields were absent from the payload.
type Contact struct {
	Name    string
	Title   string
	Company string
	Emails  []string
	Phones  []string
	URLs    []string
	Address string
	Note    string
}

// IsEmpty reports whether no field was populated.
func (c Contact) IsEmpty() bool {
	return c.Name == "" && c.Title == "" && c.Company == "" &&
		len(c.Emails) == 0 && len(c.Phones) == 0 && len(c.URLs) == 0 &&
		c.Address == "" && c.Note == ""
}

// IsContactPayload reports whether a decoded barcode value looks like a
// vCard or MeCard payload.
func IsContactPayload(value string) bool {
	v := strings.TrimSpace(value)
	return strings.HasPrefix(strings.ToUpper(v), "BEGIN:VCARD") ||
		strings.HasPrefix(strings.ToUpper(v), "MECARD:")
}

// ParseContact parses a vCard (2.1/3.0/4.0) or MeCard payload into a
// Contact. It returns a zero Contact when the payload is neither.
func ParseContact(value string) Contact {
	v := strings.TrimSpace(value)
	switch {
	case strings.HasPrefix(strings.ToUpper(v), "BEGIN:VCARD"):
		return parseVCard(v)
	case strings.HasPrefix(strings.ToUpper(v), "MECARD:"):
		return parseMeCard(v)
	default:
		return Contact{}
	}
}

func parseVCard(payload string) Contact {
	var c Contact
	var structuredName string

	for _, line := range unfoldLines(payload) {
		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}
		key := strings.ToUpper(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		if val == "" {
			continue
		}
		// Strip property parameters: "TEL;TYPE=CELL" -> "TEL".
		prop := key
		if semi := strings.Index(key, ";"); semi >= 0 {
			prop = key[:semi]
		}
		// Group prefixes like "item1.URL".
		if dot := strings.LastIndex(prop, "."); dot >= 0 {
			prop = prop[dot+1:]
		}

		switch prop {
		case "FN":
			c.Name = unescapeVCard(val)
		case "N":
			structuredName = val
		case "TITLE":
			c.Title = unescapeVCard(val)
		case "ORG":
			// ORG is "Company;Department"; keep the company part.
			if semi := strings.Index(val, ";"); semi >= 0 {
				val = val[:semi]
			}
			c.Company = unescapeVCard(val)
		case "EMAIL":
			c.Emails = append(c.Emails, unescapeVCard(val))
		case "TEL":
			c.Phones = append(c.Phones, unescapeVCard(val))
		case "URL":
			c.URLs = append(c.URLs, unescapeVCard(val))
		case "ADR":
			c.Address = joinVCardFields(val)
		case "NOTE":
			c.Note = unescapeVCard(val)
		}
	}

	// N is "Family;Given;Middle;Prefix;Suffix"; prefer FN when present.
	if c.Name == "" && structuredName != "" {
		parts := strings.Split(structuredName, ";")
		var words []string
		if len(parts) > 1 && parts[1] != "" {
			words = append(words, unescapeVCard(parts[1]))
		}
		if parts[0] != "" {
			words = append(words, unescapeVCard(parts[0]))
		}
		c.Name = strings.Join(words, " ")
	}
	return c
}

func parseMeCard(payload string) Contact {
	var c Contact
	body := strings.TrimPrefix(strings.TrimSpace(payload), "MECARD:")
	body = strings.TrimSuffix(body, ";;")

	for _, field := range splitMeCard(body) {
		idx := strings.Index(field, ":")
		if idx <= 0 {
			continue
		}
		key := strings.ToUpper(field[:idx])
		val := strings.TrimSpace(field[idx+1:])
		if val == "" {
			continue
		}
		switch key {
		case "N":
			// MeCard N is "Family,Given".
			if comma := strings.Index(val, ","); comma >= 0 {
				family, given := val[:comma], val[comma+1:]
				val = strings.TrimSpace(given + " " + family)
			}
			c.Name = val
		case "ORG":
			c.Company = val
		case "TEL":
			c.Phones = append(c.Phones, val)
		case "EMAIL":
			c.Emails = append(c.Emails, val)
		case "URL":
			c.URLs = append(c.URLs, val)
		case "ADR":
			c.Address = val
		case "NOTE":
			c.Note = val
		}
	}
	return c
}

// unfoldLines normalizes line endings and joins vCard continuation lines
// (lines starting with a space or tab continue the previous property).
func unfoldLines(payload string) []string {
	raw := strings.Split(strings.ReplaceAll(payload, "\r\n", "\n"), "\n")
	var lines []string
	for _, l := range raw {
		if (strings.HasPrefix(l, " ") || strings.HasPrefix(l, "\t")) && len(lines) > 0 {
			lines[len(lines)-1] += strings.TrimLeft(l, " \t")
			continue
		}
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func unescapeVCard(s string) string {
	r := strings.NewReplacer(`\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";", `\\`, `\`)
	return strings.TrimSpace(r.Replace(s))
}

// joinVCardFields turns an ADR value (";;Street;City;Region;Code;Country")
// into a single comma-separated line.
func joinVCardFields(val string) string {
	var parts []string
	for _, p := range strings.Split(val, ";") {
		p = unescapeVCard(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// splitMeCard splits on unescaped semicolons.
func splitMeCard(body string) []string {
	var fields []string
	var cur strings.Builder
	escaped := false
	for _, r := range body {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ';':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields
}

package college

import "regexp"

// domainPattern captures the run of non-dot characters after "www.".
// Hosts without a www. prefix do not match.
var domainPattern = regexp.MustCompile(`www\.([^.]+)\.`)

// ExtractDomain returns the domain token of a URL, e.g. "stanford" for
// http://www.stanford.edu. ok is false when the URL has no www.<token>. part.
func ExtractDomain(url string) (domain string, ok bool) {
	m := domainPattern.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Enrich sets Domain on a copy of every record from its first web page.
// The result has the same length and order as records.
func Enrich(records []Record) []Record {
	out := make([]Record, len(records))
	for i, rec := range records {
		rec.Domain = nil
		if len(rec.WebPages) > 0 {
			if d, ok := ExtractDomain(rec.WebPages[0]); ok {
				rec.Domain = &d
			}
		}
		out[i] = rec
	}
	return out
}

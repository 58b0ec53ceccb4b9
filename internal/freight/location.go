package freight

import "strings"

// Country is an enriched country record. City, when set, is what providers
// resolve most precisely.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
	City string `json:"city,omitempty"`
}

// ResolveLocation returns the location string sent to the rate provider.
func ResolveLocation(id string, country *Country) string {
	if country != nil {
		if city := strings.TrimSpace(country.City); city != "" {
			return city
		}
	}
	return id
}

package freight

import "strings"

// Mode is the shipping mode a caller asks for.
type Mode string

const (
	ModeAir     Mode = "air"
	ModeOcean   Mode = "ocean"
	ModeExpress Mode = "express"
)

// modeAliases maps a requested mode to provider label substrings, lower case.
var modeAliases = map[Mode][]string{
	ModeAir:     {"air"},
	ModeOcean:   {"lcl", "fcl", "ocean", "sea"},
	ModeExpress: {"express", "courier"},
}

// ParseMode normalizes a mode name. Empty input means air.
func ParseMode(s string) (Mode, bool) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return ModeAir, true
	}
	_, ok := modeAliases[m]
	return m, ok
}

// SelectTier picks the first tier, in provider order, whose label matches an
// alias of the requested mode. When nothing matches it falls back to the first
// tier and reports fallback=true; callers surface the tier's own Mode.
func SelectTier(tiers []Tier, requested Mode) (tier Tier, fallback bool, err error) {
	if len(tiers) == 0 {
		return Tier{}, false, ErrNoRatesAvailable
	}
	aliases := modeAliases[requested]
	for _, t := range tiers {
		label := strings.ToLower(t.Mode)
		for _, alias := range aliases {
			if strings.Contains(label, alias) {
				return t, false, nil
			}
		}
	}
	return tiers[0], true, nil
}

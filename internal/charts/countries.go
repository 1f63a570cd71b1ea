package charts

import (
	_ "embed"
	"strings"
)

// worldGeoJSON holds simplified country outlines from Natural Earth, as
// published by johan/world.geo.json, keyed by properties.name.
//
//go:embed assets/world.geo.json
var worldGeoJSON []byte

// countryAliases maps common spellings to one key per country. Both the data
// labels and the boundary names go through it, so sources that say
// "Russian Federation" and "Russia" meet in the middle.
var countryAliases = map[string]string{
	"united states":                         "united states of america",
	"usa":                                   "united states of america",
	"us":                                    "united states of america",
	"u.s.":                                  "united states of america",
	"u.s.a.":                                "united states of america",
	"america":                               "united states of america",
	"uk":                                    "united kingdom",
	"u.k.":                                  "united kingdom",
	"great britain":                         "united kingdom",
	"britain":                               "united kingdom",
	"russian federation":                    "russia",
	"korea, republic of":                    "south korea",
	"republic of korea":                     "south korea",
	"korea":                                 "south korea",
	"korea, rep.":                           "south korea",
	"korea, dem. people's rep.":             "north korea",
	"democratic people's republic of korea": "north korea",
	"dprk":                                  "north korea",
	"czechia":                               "czech republic",
	"north macedonia":                       "macedonia",
	"eswatini":                              "swaziland",
	"côte d'ivoire":                         "ivory coast",
	"cote d'ivoire":                         "ivory coast",
	"serbia":                                "republic of serbia",
	"tanzania":                              "united republic of tanzania",
	"timor-leste":                           "east timor",
	"bahamas":                               "the bahamas",
	"guinea-bissau":                         "guinea bissau",
	"dr congo":                              "democratic republic of the congo",
	"drc":                                   "democratic republic of the congo",
	"congo, dem. rep.":                      "democratic republic of the congo",
	"congo (kinshasa)":                      "democratic republic of the congo",
	"congo":                                 "republic of the congo",
	"congo, rep.":                           "republic of the congo",
	"congo (brazzaville)":                   "republic of the congo",
	"burma":                                 "myanmar",
	"viet nam":                              "vietnam",
	"lao pdr":                               "laos",
	"lao people's democratic republic":      "laos",
	"iran, islamic republic of":             "iran",
	"islamic republic of iran":              "iran",
	"syrian arab republic":                  "syria",
	"türkiye":                               "turkey",
	"turkiye":                               "turkey",
	"uae":                                   "united arab emirates",
	"palestine":                             "west bank",
	"state of palestine":                    "west bank",
	"republic of moldova":                   "moldova",
	"moldova, republic of":                  "moldova",
	"brunei darussalam":                     "brunei",
	"the netherlands":                       "netherlands",
	"holland":                               "netherlands",
	"the gambia":                            "gambia",
}

// countryKey is locationKey plus the alias table.
func countryKey(s string) string {
	k := locationKey(s)
	k = strings.Join(strings.Fields(k), " ")
	if c, ok := countryAliases[k]; ok {
		return c
	}
	return k
}

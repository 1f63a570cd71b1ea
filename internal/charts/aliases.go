package charts

import "strings"

// Aliases lists the column names that mark a time axis or a geographic
// column. Matching is case-insensitive on the trimmed name.
type Aliases struct {
	Time     []string `mapstructure:"time" yaml:"time"`
	Geo      []string `mapstructure:"geo" yaml:"geo"`
	WorldGeo []string `mapstructure:"world_geo" yaml:"world_geo"`
}

// DefaultAliases covers English and Malay headers.
func DefaultAliases() Aliases {
	return Aliases{
		Time:     []string{"year", "date", "tahun", "tarikh"},
		Geo:      []string{"negeri", "state", "daerah", "region", "country", "negara"},
		WorldGeo: []string{"country", "negara", "state"},
	}
}

// withDefaults fills empty lists from DefaultAliases.
func (a Aliases) withDefaults() Aliases {
	d := DefaultAliases()
	if len(a.Time) == 0 {
		a.Time = d.Time
	}
	if len(a.Geo) == 0 {
		a.Geo = d.Geo
	}
	if len(a.WorldGeo) == 0 {
		a.WorldGeo = d.WorldGeo
	}
	return a
}

func matches(name string, list []string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, a := range list {
		if n == strings.ToLower(strings.TrimSpace(a)) {
			return true
		}
	}
	return false
}

// IsTime reports whether a column name is a time-axis alias.
func (a Aliases) IsTime(name string) bool { return matches(name, a.Time) }

// IsGeo reports whether a column name is a geographic alias.
func (a Aliases) IsGeo(name string) bool { return matches(name, a.Geo) }

// IsWorld reports whether a geographic column is keyed at country level.
func (a Aliases) IsWorld(name string) bool { return matches(name, a.WorldGeo) }

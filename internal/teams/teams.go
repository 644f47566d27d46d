// Package teams holds the static NBA team name tables and the normalization
// rules that reconcile the naming conventions of the odds feed, the stats
// source, and the box-score source.
package teams

import "strings"

// NBA team abbreviation mappings
var teamAbbreviations = map[string]string{
	"Atlanta Hawks":          "ATL",
	"Boston Celtics":         "BOS",
	"Brooklyn Nets":          "BKN",
	"Charlotte Hornets":      "CHA",
	"Chicago Bulls":          "CHI",
	"Cleveland Cavaliers":    "CLE",
	"Dallas Mavericks":       "DAL",
	"Denver Nuggets":         "DEN",
	"Detroit Pistons":        "DET",
	"Golden State Warriors":  "GSW",
	"Houston Rockets":        "HOU",
	"Indiana Pacers":         "IND",
	"Los Angeles Clippers":   "LAC",
	"Los Angeles Lakers":     "LAL",
	"Memphis Grizzlies":      "MEM",
	"Miami Heat":             "MIA",
	"Milwaukee Bucks":        "MIL",
	"Minnesota Timberwolves": "MIN",
	"New Orleans Pelicans":   "NOP",
	"New York Knicks":        "NYK",
	"Oklahoma City Thunder":  "OKC",
	"Orlando Magic":          "ORL",
	"Philadelphia 76ers":     "PHI",
	"Phoenix Suns":           "PHX",
	"Portland Trail Blazers": "POR",
	"Sacramento Kings":       "SAC",
	"San Antonio Spurs":      "SAS",
	"Toronto Raptors":        "TOR",
	"Utah Jazz":              "UTA",
	"Washington Wizards":     "WAS",
}

// Reverse mapping for lookups
var abbreviationToName = map[string]string{}

func init() {
	for name, abbr := range teamAbbreviations {
		abbreviationToName[abbr] = name
	}
}

// Abbreviation returns the abbreviation for a full team name
func Abbreviation(fullName string) string {
	if abbr, ok := teamAbbreviations[Canonical(fullName)]; ok {
		return abbr
	}
	return fullName // Return original if not found
}

// FullName returns the full name for an abbreviation
func FullName(abbr string) string {
	if name, ok := abbreviationToName[abbr]; ok {
		return name
	}
	return abbr // Return original if not found
}

// cityToFullName maps the city-style names some sources use (lowercased) to
// the full name the odds feed uses. "LA Clippers" is the one current team the
// feed does not spell out.
var cityToFullName = map[string]string{
	"atlanta":       "Atlanta Hawks",
	"boston":        "Boston Celtics",
	"brooklyn":      "Brooklyn Nets",
	"charlotte":     "Charlotte Hornets",
	"chicago":       "Chicago Bulls",
	"cleveland":     "Cleveland Cavaliers",
	"dallas":        "Dallas Mavericks",
	"denver":        "Denver Nuggets",
	"detroit":       "Detroit Pistons",
	"golden state":  "Golden State Warriors",
	"houston":       "Houston Rockets",
	"indiana":       "Indiana Pacers",
	"la clippers":   "Los Angeles Clippers",
	"la lakers":     "Los Angeles Lakers",
	"memphis":       "Memphis Grizzlies",
	"miami":         "Miami Heat",
	"milwaukee":     "Milwaukee Bucks",
	"minnesota":     "Minnesota Timberwolves",
	"new orleans":   "New Orleans Pelicans",
	"new york":      "New York Knicks",
	"oklahoma city": "Oklahoma City Thunder",
	"orlando":       "Orlando Magic",
	"philadelphia":  "Philadelphia 76ers",
	"phoenix":       "Phoenix Suns",
	"portland":      "Portland Trail Blazers",
	"sacramento":    "Sacramento Kings",
	"san antonio":   "San Antonio Spurs",
	"toronto":       "Toronto Raptors",
	"utah":          "Utah Jazz",
	"washington":    "Washington Wizards",
}

// Canonical resolves a team name from any source to the full name the odds
// feed uses. City-style names ("Utah", "LA Clippers") are expanded; names
// that already look like full names pass through unchanged.
func Canonical(name string) string {
	trimmed := strings.TrimSpace(name)
	if full, ok := cityToFullName[strings.ToLower(trimmed)]; ok {
		return full
	}
	return trimmed
}

// Key lowercases and trims a team name for use as a lookup key into the
// season-stats table.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Nickname reduces a team name to its lowercased nickname: leading "the" is
// stripped and the last whitespace-delimited token is kept. Box-score and
// odds sources disagree on city prefixes ("LA Clippers" vs "Los Angeles
// Clippers") but agree on nicknames, so reconciliation matches on this form.
func Nickname(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.TrimPrefix(s, "the ")
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

package pipeline

// DefaultCities is the built-in city roster, overridable with --cities.
var DefaultCities = []string{
	"Albuquerque", "Anchorage", "Atlanta", "Austin",
	"Baltimore", "Baton Rouge", "Birmingham", "Boise", "Boston", "Buffalo",
	"Chandler", "Charlotte", "Chesapeake", "Chula Vista", "Cincinnati",
	"Clarksville", "Corpus Christi",
	"Dallas", "Denver", "Des Moines", "Detroit", "Durham",
	"El Paso",
	"Fayetteville", "Fort Wayne", "Fort Worth", "Fremont", "Fresno",
	"Garland", "Gilbert", "Glendale", "Grand Rapids", "Greensboro",
	"Henderson", "Hialeah", "Honolulu", "Huntington Beach", "Huntsville",
	"Indianapolis", "Irvine", "Irving",
	"Jacksonville", "Jersey City",
	"Kansas City", "Knoxville",
	"Laredo", "Las Vegas", "Lexington", "Lincoln", "Long Beach", "Louisville", "Lubbock",
	"Madison", "Memphis", "Mesa", "Miami", "Milwaukee", "Minneapolis",
	"Modesto", "Montgomery", "Moreno Valley",
	"Nashville", "New Orleans", "Norfolk", "North Las Vegas",
	"Oakland", "Oklahoma City", "Omaha", "Orlando", "Oxnard",
	"Pittsburgh", "Plano", "Portland",
	"Raleigh", "Reno", "Richmond", "Riverside", "Rochester",
	"Sacramento", "Saint Paul", "Salt Lake City", "San Antonio",
	"San Bernardino", "San Diego", "San Francisco", "San Jose",
	"Santa Ana", "Santa Clarita", "Scottsdale", "Seattle",
	"Shreveport", "Spokane", "Stockton", "St. Louis", "St. Petersburg", "Syracuse",
	"Tacoma", "Tallahassee", "Tampa", "Toledo", "Tucson", "Tulsa",
	"Virginia Beach",
	"Washington DC", "Wichita", "Winston-Salem", "Worcester",
	"Yonkers",
}

// Batches splits cities into consecutive groups of size n, last group short.
func Batches(cities []string, n int) [][]string {
	if n <= 0 {
		n = 1
	}
	var out [][]string
	for i := 0; i < len(cities); i += n {
		end := i + n
		if end > len(cities) {
			end = len(cities)
		}
		out = append(out, cities[i:end])
	}
	return out
}

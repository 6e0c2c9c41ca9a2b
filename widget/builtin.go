package widget

// Panel is a black-box widget identified by the data feed it would display.
type Panel struct {
	kind Kind
	Feed string
}

func (p Panel) Kind() Kind { return p.kind }

func chart(feed string) Panel { return Panel{kind: KindChart, Feed: feed} }
func card(feed string) Panel  { return Panel{kind: KindCard, Feed: feed} }

var builtin = MustRegistry(
	Entry{ID: "1", Label: "Your Favourite Movie", Widget: card("/movies/{favourite}")},
	Entry{ID: "2", Label: "KPI Cards", Widget: card("/movies/unique-languages")},
	Entry{ID: "3", Label: "Genre Breakdown", Widget: chart("/movies/genre-breakdown")},
	Entry{ID: "4", Label: "Actor Frequency", Widget: chart("/movies/actors/frequency")},
	Entry{ID: "5", Label: "Revenue and Releases Over Time", Widget: chart("/movies/releases-over-time")},
	Entry{ID: "6", Label: "Ratings Distribution", Widget: chart("/movies/ratings/distribution")},
	Entry{ID: "7", Label: "Search Bar", Widget: Panel{kind: KindSearch, Feed: "/movie/search"}},
	Entry{ID: "8", Label: "Filter Movie", Widget: Panel{kind: KindTable, Feed: "/movies"}},
	Entry{ID: "9", Label: "Top 10 Highest-Rated Movies", Widget: chart("/movies/top-rated")},
	Entry{ID: "10", Label: "Movies by Production Country", Widget: chart("/movies/production-country")},
	Entry{ID: "11", Label: "Movie Suggestion", Widget: card("/movie/searched")},
	Entry{ID: "12", Label: "Multiple Chart", Widget: chart("/movies/pop-vs-rating")},
)

// Default returns the registry of built-in dashboard widgets.
func Default() *Registry {
	return builtin
}

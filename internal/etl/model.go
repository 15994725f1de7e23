package etl

// Raw payload shapes, limited to the fields the warehouse tables carry.

type namedEntity struct {
	MalID int    `json:"mal_id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	URL   string `json:"url"`
	Count int    `json:"count"`
}

type dateRange struct {
	From *string `json:"from"`
	To   *string `json:"to"`
}

type broadcast struct {
	Day  *string `json:"day"`
	Time *string `json:"time"`
}

type relationGroup struct {
	Relation string        `json:"relation"`
	Entry    []namedEntity `json:"entry"`
}

type animeDetail struct {
	MalID          int             `json:"mal_id"`
	Title          string          `json:"title"`
	TitleEnglish   *string         `json:"title_english"`
	TitleJapanese  *string         `json:"title_japanese"`
	TitleSynonyms  []string        `json:"title_synonyms"`
	Type           *string         `json:"type"`
	Source         *string         `json:"source"`
	Episodes       *int            `json:"episodes"`
	Status         *string         `json:"status"`
	Airing         bool            `json:"airing"`
	Aired          dateRange       `json:"aired"`
	Duration       *string         `json:"duration"`
	Rating         *string         `json:"rating"`
	Score          *float64        `json:"score"`
	ScoredBy       *int64          `json:"scored_by"`
	Rank           *int            `json:"rank"`
	Popularity     *int            `json:"popularity"`
	Members        *int64          `json:"members"`
	Favorites      *int64          `json:"favorites"`
	Synopsis       *string         `json:"synopsis"`
	Background     *string         `json:"background"`
	Season         *string         `json:"season"`
	Year           *int            `json:"year"`
	Broadcast      broadcast       `json:"broadcast"`
	Approved       bool            `json:"approved"`
	Genres         []namedEntity   `json:"genres"`
	Studios        []namedEntity   `json:"studios"`
	Producers      []namedEntity   `json:"producers"`
	Themes         []namedEntity   `json:"themes"`
	Demographics   []namedEntity   `json:"demographics"`
	Relations      []relationGroup `json:"relations"`
}

type animeDoc struct {
	Data animeDetail `json:"data"`
}

type statisticsData struct {
	Watching    int64          `json:"watching"`
	Completed   int64          `json:"completed"`
	OnHold      int64          `json:"on_hold"`
	Dropped     int64          `json:"dropped"`
	PlanToWatch int64          `json:"plan_to_watch"`
	Total       int64          `json:"total"`
	Scores      []scoreBucket  `json:"scores"`
}

type scoreBucket struct {
	Score      int     `json:"score"`
	Votes      int64   `json:"votes"`
	Percentage float64 `json:"percentage"`
}

type statisticsDoc struct {
	Data statisticsData `json:"data"`
}

type genresDoc struct {
	Data []namedEntity `json:"data"`
}

type listingEntry struct {
	MalID      int      `json:"mal_id"`
	Title      string   `json:"title"`
	Score      *float64 `json:"score"`
	Rank       *int     `json:"rank"`
	Popularity *int     `json:"popularity"`
	Members    *int64   `json:"members"`
	Type       *string  `json:"type"`
	Episodes   *int     `json:"episodes"`
	Status     *string  `json:"status"`
}

type listingDoc struct {
	Data []listingEntry `json:"data"`
}

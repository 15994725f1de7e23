package history

import (
	"context"
	"math/rand"
	"time"

	"github.com/anime-mvp/assistant/internal/agent/model"
	logx "github.com/anime-mvp/assistant/pkg/logger"
)

// seedAnime is one curated title used to synthesise a personal library.
type seedAnime struct {
	ID       int
	Title    string
	Episodes int
	Genre    string
	Score    float64
	Kind     string
}

// seedCollection spans genres, eras and popularity tiers so the generated
// history exercises every watch status and recommendation path.
var seedCollection = []seedAnime{
	{1, "Cowboy Bebop", 26, "Space Western", 8.8, "classic"},
	{121, "Fullmetal Alchemist: Brotherhood", 64, "Dark Fantasy", 9.1, "classic"},
	{199, "Spirited Away", 1, "Fantasy Film", 9.3, "classic"},
	{164, "Princess Mononoke", 1, "Fantasy Film", 8.4, "classic"},
	{32, "Akira", 1, "Cyberpunk Film", 8.0, "classic"},

	{21, "One Piece", 1000, "Adventure Shounen", 9.0, "long_running"},
	{20, "Naruto", 220, "Ninja Shounen", 8.4, "long_running"},
	{1575, "Code Geass R2", 25, "Mecha Drama", 8.9, "popular"},
	{1535, "Death Note", 37, "Psychological Thriller", 8.6, "popular"},

	{14813, "Clannad: After Story", 24, "Drama Romance", 9.0, "emotional"},
	{2904, "Code Geass", 25, "Mecha Drama", 8.7, "popular"},
	{431, "Howl's Moving Castle", 1, "Romance Film", 8.2, "film"},

	{19, "Monster", 74, "Psychological Thriller", 9.0, "mature"},
	{44, "Rurouni Kenshin", 94, "Historical Action", 8.5, "classic"},
	{33, "Berserk", 25, "Dark Fantasy", 8.7, "mature"},
	{245, "Great Teacher Onizuka", 43, "Comedy Drama", 8.7, "comedy"},

	{16498, "Attack on Titan", 25, "Dark Action", 8.7, "modern"},
	{11061, "Hunter x Hunter (2011)", 148, "Adventure Shounen", 9.0, "modern"},
	{15417, "Gintama", 201, "Comedy Action", 8.9, "comedy"},
	{28851, "Koe no Katachi", 1, "Drama Film", 8.9, "film"},

	{263, "Hajime no Ippo", 75, "Sports Boxing", 8.8, "sports"},
	{2921, "Ashita no Joe 2", 47, "Sports Boxing", 8.8, "sports"},

	{30, "Neon Genesis Evangelion", 26, "Mecha Psychological", 8.5, "complex"},
	{22135, "Ping Pong The Animation", 11, "Sports Art", 8.6, "artistic"},

	{32281, "Kimi no Na wa", 1, "Romance Film", 8.4, "film"},
	{28977, "Gintama°", 51, "Comedy Action", 9.0, "comedy"},
	{35180, "3-gatsu no Lion", 22, "Slice of Life", 8.9, "emotional"},
	{34096, "Gintama.", 12, "Comedy Action", 8.9, "comedy"},
}

const highScoreThreshold = 8.0

// Seeder generates a realistic single-user watch history into a Store.
type Seeder struct {
	store *Store
	rng   *rand.Rand
	now   time.Time
}

// NewSeeder builds a generator. A zero seed uses the current time.
func NewSeeder(store *Store, seed int64) *Seeder {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Seeder{
		store: store,
		rng:   rand.New(rand.NewSource(seed)),
		now:   time.Now().UTC(),
	}
}

// Generate resets the table and writes up to targetEntries synthetic entries
// for the personal user, returning how many were written.
func (g *Seeder) Generate(ctx context.Context, targetEntries int) (int, error) {
	if targetEntries <= 0 {
		targetEntries = 35
	}

	if err := g.store.Reset(ctx); err != nil {
		return 0, err
	}

	selected := g.selectAnime(targetEntries)
	for _, a := range selected {
		entry := g.buildEntry(a)
		if err := g.store.Upsert(ctx, entry); err != nil {
			return 0, err
		}
	}

	logx.Info().Int("entries", len(selected)).Msg("watch history seeded")
	return len(selected), nil
}

// selectAnime mixes tiers so the library always holds some classics, popular
// picks, modern hits and films before filling the rest at random.
func (g *Seeder) selectAnime(target int) []seedAnime {
	byKind := make(map[string][]seedAnime)
	for _, a := range seedCollection {
		byKind[a.Kind] = append(byKind[a.Kind], a)
	}

	var selected []seedAnime
	picked := make(map[int]bool)
	take := func(kind string, n int) {
		pool := byKind[kind]
		g.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		for _, a := range pool {
			if n == 0 {
				break
			}
			if !picked[a.ID] {
				selected = append(selected, a)
				picked[a.ID] = true
				n--
			}
		}
	}

	take("classic", 5)
	take("popular", 4)
	take("modern", 3)
	take("film", 4)

	var rest []seedAnime
	for _, a := range seedCollection {
		if !picked[a.ID] {
			rest = append(rest, a)
		}
	}
	g.rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	for _, a := range rest {
		if len(selected) >= target {
			break
		}
		selected = append(selected, a)
	}

	if len(selected) > target {
		selected = selected[:target]
	}
	return selected
}

func (g *Seeder) buildEntry(a seedAnime) model.WatchEntry {
	e := model.WatchEntry{
		UserID:        model.PersonalUserID,
		AnimeID:       a.ID,
		Title:         a.Title,
		WatchStatus:   g.pickStatus(a),
		TotalEpisodes: intPtr(a.Episodes),
		Genre:         strPtr(a.Genre),
		AnimeScore:    floatPtr(a.Score),
	}

	switch e.WatchStatus {
	case "completed":
		g.fillCompleted(&e, a)
	case "watching":
		g.fillWatching(&e, a)
	case "dropped":
		g.fillDropped(&e, a)
	case "on_hold":
		g.fillOnHold(&e, a)
	case "plan_to_watch":
		g.fillPlanned(&e)
	}
	return e
}

// pickStatus weights the watch status by the show's shape: highly rated shows
// skew to completed, very long ones stall, films finish almost always.
func (g *Seeder) pickStatus(a seedAnime) string {
	type weighted struct {
		status string
		w      float64
	}
	var weights []weighted
	switch {
	case a.Score >= highScoreThreshold && a.Episodes == 1:
		weights = []weighted{{"completed", 0.8}, {"watching", 0.05}, {"plan_to_watch", 0.1}, {"on_hold", 0.03}, {"dropped", 0.02}}
	case a.Episodes > 100:
		weights = []weighted{{"completed", 0.2}, {"watching", 0.3}, {"plan_to_watch", 0.2}, {"on_hold", 0.2}, {"dropped", 0.1}}
	case a.Score >= highScoreThreshold:
		weights = []weighted{{"completed", 0.6}, {"watching", 0.2}, {"plan_to_watch", 0.1}, {"on_hold", 0.05}, {"dropped", 0.05}}
	default:
		weights = []weighted{{"completed", 0.4}, {"watching", 0.15}, {"plan_to_watch", 0.2}, {"on_hold", 0.1}, {"dropped", 0.15}}
	}

	var total float64
	for _, w := range weights {
		total += w.w
	}
	r := g.rng.Float64() * total
	for _, w := range weights {
		if r < w.w {
			return w.status
		}
		r -= w.w
	}
	return weights[len(weights)-1].status
}

func (g *Seeder) fillCompleted(e *model.WatchEntry, a seedAnime) {
	completed := g.now.AddDate(0, 0, -g.between(7, 365))
	minDur := maxInt(1, a.Episodes/10)
	dur := g.between(minDur, maxInt(minDur, a.Episodes*2))
	started := completed.AddDate(0, 0, -dur)

	rating := int(a.Score + (g.rng.Float64()*3 - 1.5))
	rating = clamp(rating, 1, 10)

	e.Rating = intPtr(rating)
	e.EpisodesWatched = a.Episodes
	e.StartedDate = strPtr(started.Format(time.RFC3339))
	e.CompletedDate = strPtr(completed.Format(time.RFC3339))
	if g.rng.Float64() < 0.3 {
		e.Notes = strPtr(g.pick("Great series!", "Really enjoyed this one", "Classic for a reason", "Exceeded expectations", "Beautiful animation", "Amazing story"))
	}
}

func (g *Seeder) fillWatching(e *model.WatchEntry, a seedAnime) {
	started := g.now.AddDate(0, 0, -g.between(1, 90))
	e.EpisodesWatched = g.between(1, maxInt(1, minInt(a.Episodes, a.Episodes/2)))
	e.StartedDate = strPtr(started.Format(time.RFC3339))
	if g.rng.Float64() < 0.4 {
		e.Rating = intPtr(g.between(6, 9))
	}
	if g.rng.Float64() < 0.2 {
		e.Notes = strPtr(g.pick("Currently watching", "So far so good"))
	}
}

func (g *Seeder) fillDropped(e *model.WatchEntry, a seedAnime) {
	started := g.now.AddDate(0, 0, -g.between(14, 180))
	e.EpisodesWatched = g.between(1, minInt(a.Episodes, 8))
	e.StartedDate = strPtr(started.Format(time.RFC3339))
	e.Rating = intPtr(g.between(3, 6))
	if g.rng.Float64() < 0.75 {
		e.Notes = strPtr(g.pick("Not for me", "Couldn't get into it", "Lost interest"))
	}
}

func (g *Seeder) fillOnHold(e *model.WatchEntry, a seedAnime) {
	started := g.now.AddDate(0, 0, -g.between(30, 200))
	e.EpisodesWatched = g.between(1, maxInt(1, minInt(a.Episodes, a.Episodes/3)))
	e.StartedDate = strPtr(started.Format(time.RFC3339))
	if g.rng.Float64() < 0.4 {
		e.Notes = strPtr(g.pick("Will finish later", "Taking a break", "Got distracted"))
	}
}

func (g *Seeder) fillPlanned(e *model.WatchEntry) {
	if g.rng.Float64() < 0.3 {
		e.Notes = strPtr(g.pick("Want to watch", "Heard good things", "On my list"))
	}
}

func (g *Seeder) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rng.Intn(hi-lo+1)
}

func (g *Seeder) pick(options ...string) string {
	return options[g.rng.Intn(len(options))]
}

func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }
func floatPtr(v float64) *float64 { return &v }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

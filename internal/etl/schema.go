package etl

// Warehouse DDL. Nested listing arrays flatten into relationship tables keyed
// by anime_id; partition keys of the upstream layout (season, year) are plain
// columns here.
var tableSchemas = map[string]string{
	"anime": `CREATE TABLE anime (
		anime_id INTEGER,
		title VARCHAR,
		title_english VARCHAR,
		title_japanese VARCHAR,
		title_synonyms_json VARCHAR,
		type VARCHAR,
		source VARCHAR,
		episodes INTEGER,
		status VARCHAR,
		airing BOOLEAN,
		aired_from VARCHAR,
		aired_to VARCHAR,
		duration VARCHAR,
		rating VARCHAR,
		score DOUBLE,
		scored_by BIGINT,
		rank INTEGER,
		popularity INTEGER,
		members BIGINT,
		favorites BIGINT,
		synopsis VARCHAR,
		background VARCHAR,
		season VARCHAR,
		year INTEGER,
		broadcast_day VARCHAR,
		broadcast_time VARCHAR,
		approved BOOLEAN,
		processed_at TIMESTAMP
	)`,

	"anime_genres": `CREATE TABLE anime_genres (
		anime_id INTEGER,
		genre_id INTEGER,
		genre_name VARCHAR,
		genre_type VARCHAR,
		processed_at TIMESTAMP
	)`,

	"anime_studios": `CREATE TABLE anime_studios (
		anime_id INTEGER,
		studio_id INTEGER,
		studio_name VARCHAR,
		studio_type VARCHAR,
		processed_at TIMESTAMP
	)`,

	"anime_producers": `CREATE TABLE anime_producers (
		anime_id INTEGER,
		producer_id INTEGER,
		producer_name VARCHAR,
		producer_type VARCHAR,
		processed_at TIMESTAMP
	)`,

	"anime_themes": `CREATE TABLE anime_themes (
		anime_id INTEGER,
		theme_id INTEGER,
		theme_name VARCHAR,
		theme_type VARCHAR,
		processed_at TIMESTAMP
	)`,

	"anime_demographics": `CREATE TABLE anime_demographics (
		anime_id INTEGER,
		demographic_id INTEGER,
		demographic_name VARCHAR,
		demographic_type VARCHAR,
		processed_at TIMESTAMP
	)`,

	"anime_relations": `CREATE TABLE anime_relations (
		source_anime_id INTEGER,
		target_anime_id INTEGER,
		target_title VARCHAR,
		target_type VARCHAR,
		relation_type VARCHAR,
		processed_at TIMESTAMP
	)`,

	"anime_statistics": `CREATE TABLE anime_statistics (
		anime_id INTEGER,
		watching BIGINT,
		completed BIGINT,
		on_hold BIGINT,
		dropped BIGINT,
		plan_to_watch BIGINT,
		total BIGINT,
		scores_json VARCHAR,
		processed_at TIMESTAMP
	)`,

	"genres_master": `CREATE TABLE genres_master (
		genre_id INTEGER,
		name VARCHAR,
		url VARCHAR,
		count INTEGER,
		processed_at TIMESTAMP
	)`,

	"top_anime": `CREATE TABLE top_anime (
		anime_id INTEGER,
		title VARCHAR,
		score DOUBLE,
		rank INTEGER,
		popularity INTEGER,
		members BIGINT,
		type VARCHAR,
		episodes INTEGER,
		status VARCHAR,
		processed_at TIMESTAMP
	)`,

	"seasonal_anime": `CREATE TABLE seasonal_anime (
		anime_id INTEGER,
		title VARCHAR,
		season_name VARCHAR,
		season_year INTEGER,
		type VARCHAR,
		episodes INTEGER,
		status VARCHAR,
		score DOUBLE,
		processed_at TIMESTAMP
	)`,
}

// tableOrder fixes a deterministic processing sequence.
var tableOrder = []string{
	"anime",
	"anime_genres",
	"anime_studios",
	"anime_producers",
	"anime_themes",
	"anime_demographics",
	"anime_relations",
	"anime_statistics",
	"genres_master",
	"top_anime",
	"seasonal_anime",
}

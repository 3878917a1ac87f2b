package model

// GamePreview is the lightweight catalog projection used in listings and
// wishlist previews.
type GamePreview struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	BackgroundImage string   `json:"background_image"`
	Metacritic      *int     `json:"metacritic"`
	ParentPlatforms []string `json:"parent_platforms"`
}

// GameDetail is the full catalog projection for a single game page.
type GameDetail struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Metacritic      *int     `json:"metacritic"`
	Released        string   `json:"released"`
	BackgroundImage string   `json:"background_image"`
	Website         string   `json:"website"`
	Genres          []string `json:"genres"`
	Platforms       []string `json:"platforms"`
}

// GamePage is one page of previews. NextPage is nil on the last page.
type GamePage struct {
	Games    []GamePreview `json:"games"`
	NextPage *int          `json:"nextPage"`
}

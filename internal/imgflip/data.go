package imgflip

// Wire types for the official get_memes endpoint.

type memeDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`

	Width    int `json:"width"`
	Height   int `json:"height"`
	BoxCount int `json:"box_count"`
}

type getMemesDTO struct {
	Success bool `json:"success"`
	Data    struct {
		Memes []memeDTO `json:"memes"`
	} `json:"data"`
	ErrorMessage string `json:"error_message"`
}

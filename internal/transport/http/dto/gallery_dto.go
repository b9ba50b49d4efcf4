package dto

type SessionOpenResponse struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
}

type SetModeRequest struct {
	Mode string `json:"mode"`
}

type SetFilterRequest struct {
	Category string `json:"category"`
	Search   string `json:"search"`
}

type GalleryItemResponse struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
	Views      int64    `json:"views"`
	Likes      int64    `json:"likes"`
	PreviewURL string   `json:"preview_url,omitempty"`
	Liked      bool     `json:"liked"`
	Favorited  bool     `json:"favorited"`
}

type GalleryPageResponse struct {
	Items     []GalleryItemResponse `json:"items"`
	PageIndex int                   `json:"page_index"`
	Exhausted bool                  `json:"exhausted"`
}

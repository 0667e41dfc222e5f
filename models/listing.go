package models

// RawListingItem holds the unparsed text fields scraped from one listing
// card. Everything is verbatim site text; normalization happens afterwards.
type RawListingItem struct {
	ArticleNo        string
	OwnerLabel       string
	TransactionLabel string
	RawPrice         string
	BuildingLabel    string
	RawSpec          string
	RawTags          []string
	RawConfirmDate   string
	DetailHref       string
}

// Listing is one normalized property record. Address is the searched
// address, not listing-specific; the result view is per searched area.
type Listing struct {
	ArticleNo       string   `json:"article_no"`
	Address         string   `json:"address"`
	OwnerType       string   `json:"owner_name"`
	TransactionType string   `json:"transaction_type"`
	Price           int64    `json:"price"`
	BuildingType    string   `json:"building_type"`
	AreaPyeong      float64  `json:"area_size"`
	FloorInfo       string   `json:"floor_info"`
	Direction       string   `json:"direction"`
	Tags            []string `json:"tags"`
	UpdatedDate     string   `json:"updated_date"`

	// Populated by the enrichment worker, empty on the crawl path.
	DetailURL   string   `json:"detail_url"`
	ImageURLs   []string `json:"image_urls"`
	Description string   `json:"description"`

	// Set when the listing is served from the recommendation board rather
	// than a fresh search.
	IsRecommendation bool `json:"is_recommendation,omitempty"`
}

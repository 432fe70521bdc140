package catalog

// Product is a product record as listed by search and browsing endpoints.
type Product struct {
	ID             string   `json:"_id"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	Price          float64  `json:"price"`
	DiscountPrice  float64  `json:"discountPrice,omitempty"`
	Images         []string `json:"images,omitempty"`
	ManufacturerID string   `json:"manufacturerId,omitempty"`
	Rating         float64  `json:"rating,omitempty"`
	InStock        bool     `json:"inStock"`
}

package catalog

// ProductID identifier type
type ProductID string

// Product is the subset of a catalog item the recommender needs.
type Product struct {
	ID        ProductID `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Brand     string    `json:"brand,omitempty"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency"`
	HeroImage string    `json:"hero_image,omitempty"`
	// Concerns are concern labels as produced by the fusion engine, e.g. "Acne".
	Concerns []string `json:"concerns"`
	// SkinTypes are skin type keys, e.g. "oily_skin".
	SkinTypes []string `json:"skin_types"`

	RatingAvg   float64 `json:"rating_avg"`
	RatingCount int     `json:"rating_count"`
}

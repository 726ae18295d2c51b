package model

// Item is a catalogued reusable material. Availability is an administrative
// flag and is never derived from Quantity.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Quantity    int    `json:"quantity"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Available   bool   `json:"available"`
}

// Item categories.
const (
	CategoryPaper       = "Paper & Cardboard"
	CategoryFabric      = "Fabric & Textiles"
	CategoryWood        = "Wood"
	CategoryPlastic     = "Plastic"
	CategoryMetal       = "Metal"
	CategoryGlass       = "Glass"
	CategoryNature      = "Nature"
	CategoryElectronics = "Electronics"
	CategoryStationery  = "Stationery"
)

// Categories lists every valid category in display order.
var Categories = []string{
	CategoryPaper,
	CategoryFabric,
	CategoryWood,
	CategoryPlastic,
	CategoryMetal,
	CategoryGlass,
	CategoryNature,
	CategoryElectronics,
	CategoryStationery,
}

// IsCategory reports whether c is one of the fixed categories.
func IsCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// DefaultItems returns a fresh copy of the built-in starter inventory.
func DefaultItems() []Item {
	return []Item{
		{
			ID:          "1",
			Name:        "Cardboard Tubes",
			Category:    CategoryPaper,
			Quantity:    150,
			Location:    "Bin A1",
			Description: "Assorted sizes of cardboard tubes.",
			Image:       "https://images.unsplash.com/photo-1589792923962-537704632910?auto=format&fit=crop&w=300&q=80",
			Available:   true,
		},
		{
			ID:          "2",
			Name:        "Fabric Scraps",
			Category:    CategoryFabric,
			Quantity:    45,
			Location:    "Shelf B2",
			Description: "Colorful cotton offcuts.",
			Image:       "https://images.unsplash.com/photo-1521980066195-207d58a5e12f?auto=format&fit=crop&w=300&q=80",
			Available:   true,
		},
		{
			ID:          "3",
			Name:        "Wine Corks",
			Category:    CategoryWood,
			Quantity:    300,
			Location:    "Bin A3",
			Description: "Natural corks.",
			Image:       "https://images.unsplash.com/photo-1516546700755-e87f2258544d?auto=format&fit=crop&w=300&q=80",
			Available:   true,
		},
	}
}

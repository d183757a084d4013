package domain

type MenuItem struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"imageUrl,omitempty"`
	Category string  `json:"category,omitempty"`
	IsVeg    bool    `json:"isVeg,omitempty"`
}

type CartLine struct {
	ItemID   string  `json:"itemId"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	ImageURL string  `json:"imageUrl,omitempty"`
	Category string  `json:"category,omitempty"`
	IsVeg    bool    `json:"isVeg,omitempty"`
}

func LineFromItem(item MenuItem, quantity int) CartLine {
	return CartLine{
		ItemID:   item.ID,
		Name:     item.Name,
		Price:    item.Price,
		Quantity: quantity,
		ImageURL: item.ImageURL,
		Category: item.Category,
		IsVeg:    item.IsVeg,
	}
}

// CartScope identifies one persisted cart. An empty Owner is the guest scope.
type CartScope struct {
	Owner string
	Venue string
}

func (s CartScope) Guest() bool {
	return s.Owner == ""
}

func (s CartScope) Key() string {
	if s.Guest() {
		return "cart:guest:" + s.Venue
	}
	return "cart:user:" + s.Owner + ":" + s.Venue
}

func (s CartScope) GuestScope() CartScope {
	return CartScope{Venue: s.Venue}
}

type CartView struct {
	Venue     string     `json:"venueId"`
	Owner     string     `json:"ownerId,omitempty"`
	Lines     []CartLine `json:"items"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"itemCount"`
}

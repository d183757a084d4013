package domain

const RoleAdmin = "admin"

// Venue is a canteen/college that partitions menu, cart and orders.
type Venue struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

type Identity struct {
	UserID          string `json:"_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	SelectedVenueID string `json:"selectedCollegeId,omitempty"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// OwnerID returns the user id, or "" for the guest scope.
func (i *Identity) OwnerID() string {
	if i == nil {
		return ""
	}
	return i.UserID
}

func FindVenue(venues []Venue, id string) (Venue, bool) {
	for _, v := range venues {
		if v.ID == id {
			return v, true
		}
	}
	return Venue{}, false
}

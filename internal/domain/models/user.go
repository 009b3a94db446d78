package models

// RestaurantRef is the minimal restaurant identity used for selection.
type RestaurantRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// User is the authenticated identity as returned by the remote API.
type User struct {
	ID          int64           `json:"id"`
	FirstName   string          `json:"firstName"`
	LastName    string          `json:"lastName"`
	Role        string          `json:"role"`
	Status      string          `json:"status"`
	CreatedAt   string          `json:"createdAt"`
	Email       string          `json:"email"`
	PhoneNumber int64           `json:"phonenumber"`
	IsSuperUser bool            `json:"isSuperUser"`
	ValidUntil  string          `json:"validUntil"`
	Restaurants []RestaurantRef `json:"restaurants"`
}

// HasRestaurant reports whether id is one of the user's restaurants.
func (u *User) HasRestaurant(id int64) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Restaurants {
		if r.ID == id {
			return true
		}
	}
	return false
}

// FindRestaurant returns the user's restaurant with the given id.
func (u *User) FindRestaurant(id int64) (RestaurantRef, bool) {
	if u == nil {
		return RestaurantRef{}, false
	}
	for _, r := range u.Restaurants {
		if r.ID == id {
			return r, true
		}
	}
	return RestaurantRef{}, false
}

// UserInput is the create/edit payload for admin user management.
type UserInput struct {
	FirstName     string  `json:"firstName" binding:"required"`
	LastName      string  `json:"lastName"`
	Email         string  `json:"email" binding:"required,email"`
	PhoneNumber   int64   `json:"phonenumber,omitempty"`
	Password      string  `json:"password,omitempty"`
	Role          string  `json:"role" binding:"required"`
	Status        string  `json:"status,omitempty"`
	IsSuperUser   bool    `json:"isSuperUser"`
	ValidUntil    string  `json:"validUntil,omitempty"`
	RestaurantIDs []int64 `json:"restaurantIds,omitempty"`
}

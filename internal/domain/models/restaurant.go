package models

type RestaurantFile struct {
	ID   int64  `json:"id"`
	Path string `json:"path"`
}

type RestaurantOwner struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Restaurant is the full record used in admin management.
type Restaurant struct {
	ID        int64            `json:"id"`
	Name      string           `json:"name"`
	Slug      string           `json:"slug"`
	File      *RestaurantFile  `json:"file,omitempty"`
	User      *RestaurantOwner `json:"user,omitempty"`
	CreatedAt string           `json:"createdAt,omitempty"`
}

type RestaurantInput struct {
	Name   string `json:"name" binding:"required"`
	Slug   string `json:"slug" binding:"required"`
	UserID int64  `json:"userId,omitempty"`
	FileID int64  `json:"fileId,omitempty"`
}

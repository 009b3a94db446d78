package models

type Order struct {
	ID            int64   `json:"id"`
	FullName      string  `json:"fullName"`
	PhoneNumber   int64   `json:"phonenumber"`
	Date          string  `json:"date"`
	OrderTypeName string  `json:"orderTypeName"`
	ChairCount    int     `json:"chairCount"`
	Price         float64 `json:"price"`
	Discount      float64 `json:"discount"`
	TotalPayment  float64 `json:"totalPayment"`
	Status        string  `json:"status"`
	Offsite       bool    `json:"offsite"`
	Note          string  `json:"note,omitempty"`
	Comment       string  `json:"comment,omitempty"`
	RestaurantID  int64   `json:"restaurantId,omitempty"`
}

package model

import "time"

// Property is a host-owned listing. Image handling stays external; the
// catalog stores URLs only.
type Property struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	HostID       string    `json:"host_id" bson:"host_id" validate:"required,mongodb"`
	Title        string    `json:"title" bson:"title" validate:"required,min=2,max=200"`
	Description  string    `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=5000"`
	Location     string    `json:"location" bson:"location" validate:"required,min=2,max=200"`
	PropertyType string    `json:"property_type" bson:"property_type" validate:"required,min=2,max=50"`
	MaxGuests    int       `json:"max_guests" bson:"max_guests" validate:"required,min=1,max=100"`
	Price        float64   `json:"price" bson:"price" validate:"required,gt=0"`
	Images       []string  `json:"images,omitempty" bson:"images,omitempty" validate:"omitempty,max=20,dive,url"`
	Amenities    []string  `json:"amenities,omitempty" bson:"amenities,omitempty" validate:"omitempty,max=50"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

type PropertyUpdate struct {
	Title        string   `json:"title,omitempty" validate:"omitempty,min=2,max=200"`
	Description  *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Location     string   `json:"location,omitempty" validate:"omitempty,min=2,max=200"`
	PropertyType string   `json:"property_type,omitempty" validate:"omitempty,min=2,max=50"`
	MaxGuests    *int     `json:"max_guests,omitempty" validate:"omitempty,min=1,max=100"`
	Price        *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	Images       []string `json:"images,omitempty" validate:"omitempty,max=20,dive,url"`
	Amenities    []string `json:"amenities,omitempty" validate:"omitempty,max=50"`
}

// PropertyFilter narrows a catalog search. When CheckIn and CheckOut are
// both set, properties with an active booking overlapping the range are
// excluded.
type PropertyFilter struct {
	Location string     `json:"location,omitempty" validate:"omitempty,max=200"`
	Guests   int        `json:"guests,omitempty" validate:"omitempty,min=1"`
	MaxPrice float64    `json:"max_price,omitempty" validate:"omitempty,gt=0"`
	CheckIn  *time.Time `json:"check_in,omitempty"`
	CheckOut *time.Time `json:"check_out,omitempty"`
}

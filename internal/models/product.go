package models

import "time"

// Product is a catalog entry. IDs are small integers assigned in insertion
// order.
type Product struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	Category  string    `json:"category"`
	NewPrice  float64   `json:"new_price"`
	OldPrice  float64   `json:"old_price"`
	Date      time.Time `json:"date"`
	Available bool      `json:"available"`
}

type AddProductRequest struct {
	Name     string  `json:"name"`
	Image    string  `json:"image"`
	Category string  `json:"category"`
	NewPrice float64 `json:"new_price"`
	OldPrice float64 `json:"old_price"`
}

type RemoveProductRequest struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

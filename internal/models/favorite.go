package models

import "time"

// Favorite is a place saved by a client.
type Favorite struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	PlaceID      string    `json:"place_id"`
	PlaceName    string    `json:"place_name"`
	PlaceAddress string    `json:"place_address"`
	CreatedAt    time.Time `json:"created_at"`
}

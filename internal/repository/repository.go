package repository

import (
	"setrag/internal/database"
)

// InventoryRepositories are the stores owned by the inventory service
type InventoryRepositories struct {
	Seats *SeatRepository
	Trips *TripRepository
}

func NewInventoryRepositories(db *database.DB) *InventoryRepositories {
	return &InventoryRepositories{
		Seats: NewSeatRepository(db),
		Trips: NewTripRepository(db),
	}
}

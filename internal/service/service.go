package service

import "time"

// InventoryServices are hosted by cmd/inventory
type InventoryServices struct {
	Ledger *LedgerService
}

func NewInventoryServices(seats SeatStore, trips TripStore, publisher Publisher, defaultHold time.Duration) *InventoryServices {
	return &InventoryServices{
		Ledger: NewLedgerService(seats, trips, publisher, defaultHold),
	}
}

// BookingServices are hosted by cmd/booking
type BookingServices struct {
	Bookings *BookingService
}

func NewBookingServices(ledger SeatLedger, directory TripDirectory, store BookingStore, publisher Publisher, hold time.Duration) *BookingServices {
	return &BookingServices{
		Bookings: NewBookingService(ledger, directory, NewPriceCalculator(), store, publisher, hold),
	}
}

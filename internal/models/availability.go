package models

// SlotStatus is the state of one hourly slot in the daily grid.
type SlotStatus string

const (
	SlotOccupied SlotStatus = "OCCUPIED"
	SlotPending  SlotStatus = "PENDING"
	SlotFree     SlotStatus = "FREE"
)

// RoomSlots is one room row in the daily grid keyed by slot start (HH:MM).
type RoomSlots struct {
	Room
	Slots map[string]SlotStatus `json:"slots"`
}

// DailyGrid is the per-room hourly occupancy for a calendar date.
type DailyGrid struct {
	Date    string      `json:"date"`
	Weekday string      `json:"weekday"`
	Hours   []string    `json:"hours"`
	Rooms   []RoomSlots `json:"rooms"`
}

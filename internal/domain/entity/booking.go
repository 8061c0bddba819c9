package entity

import "slices"

// BookingStatus is the status a booking has in the external booking workflow.
type BookingStatus string

const (
	BookingInquiry   BookingStatus = "Inquiry"
	BookingPending   BookingStatus = "Pending"
	BookingRequested BookingStatus = "Requested"
	BookingRejected  BookingStatus = "Rejected"
	BookingCancelled BookingStatus = "Cancelled"
	BookingConfirmed BookingStatus = "Confirmed"
	BookingBooked    BookingStatus = "Booked"
)

var reservingStatuses = []BookingStatus{BookingConfirmed, BookingBooked}

// ReservesSlot reports whether a booking in this status holds capacity.
func (s BookingStatus) ReservesSlot() bool {
	return slices.Contains(reservingStatuses, s)
}

package entity

// PaymentStatus tracks the fee of a token. Walk-in bookings carry NA.
type PaymentStatus string

const (
	PaymentStatusNA      PaymentStatus = "NA"
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

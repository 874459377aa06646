package model

import (
	"strings"
	"time"
)

// Date is a day-granularity timestamp serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(time.DateOnly) + `"`), nil
}

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type Item struct {
	ID                int    `json:"-" db:"id"`
	ItemUid           string `json:"itemUid" db:"item_uid"`
	Name              string `json:"name" db:"name"`
	Category          string `json:"category" db:"category"`
	TotalQuantity     int    `json:"totalQuantity" db:"total_quantity"`
	AvailableQuantity int    `json:"availableQuantity" db:"available_quantity"`
	IsAvailable       bool   `json:"isAvailable" db:"is_available"`
	Notes             string `json:"notes" db:"notes"`
}

type ListItems struct {
	Paging `json:",inline"`
	Items  []Item `json:"items"`
}

type CreateItemRequest struct {
	Name          string `json:"name" validate:"required"`
	Category      string `json:"category"`
	TotalQuantity int    `json:"totalQuantity" validate:"required,gte=1"`
	Notes         string `json:"notes"`
}

// UpdateItemRequest patches an item; nil fields stay untouched.
type UpdateItemRequest struct {
	Name          *string `json:"name"`
	Category      *string `json:"category"`
	TotalQuantity *int    `json:"totalQuantity" validate:"omitempty,gte=0"`
	IsAvailable   *bool   `json:"isAvailable"`
	Notes         *string `json:"notes"`
}

type AvailabilityResponse struct {
	ItemUid           string `json:"itemUid"`
	StartDate         Date   `json:"startDate"`
	EndDate           Date   `json:"endDate"`
	AvailableQuantity int    `json:"availableQuantity"`
}

type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "ACTIVE"
	LoanStatusReturned LoanStatus = "RETURNED"
)

type Loan struct {
	ID           int        `json:"-" db:"id"`
	LoanUid      string     `json:"loanUid" db:"loan_uid"`
	ItemUid      string     `json:"itemUid" db:"item_uid"`
	ItemName     string     `json:"itemName" db:"item_name"`
	StudentName  string     `json:"studentName" db:"student_name"`
	StudentID    string     `json:"studentId" db:"student_id"`
	Quantity     int        `json:"quantity" db:"quantity"`
	CheckoutDate time.Time  `json:"checkoutDate" db:"checkout_date"`
	DueDate      time.Time  `json:"dueDate" db:"due_date"`
	ReturnDate   *time.Time `json:"returnDate,omitempty" db:"return_date"`
	Status       LoanStatus `json:"status" db:"status"`
	Notes        string     `json:"notes" db:"notes"`
}

type CheckoutRequest struct {
	ItemUid     string `json:"itemUid" validate:"required,uuid"`
	Quantity    int    `json:"quantity" validate:"required,gte=1"`
	DueDate     Date   `json:"dueDate" validate:"required"`
	StudentName string `json:"studentName" validate:"required"`
	StudentID   string `json:"studentId" validate:"required"`
	Notes       string `json:"notes"`
	UserName    string `json:"-" validate:"required"`
}

type ReturnLoanRequest struct {
	Notes string `json:"notes"`
}

type LoanFilter struct {
	Status      LoanStatus
	StudentID   string
	OverdueOnly bool
}

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusApproved  ReservationStatus = "APPROVED"
	ReservationStatusRejected  ReservationStatus = "REJECTED"
	ReservationStatusCompleted ReservationStatus = "COMPLETED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusApproved, ReservationStatusRejected,
		ReservationStatusCompleted, ReservationStatusCancelled:
		return true
	}
	return false
}

// transitions: PENDING may be decided or withdrawn, APPROVED may finish or be
// withdrawn, everything else is terminal.
var transitions = map[ReservationStatus][]ReservationStatus{
	ReservationStatusPending:  {ReservationStatusApproved, ReservationStatusRejected, ReservationStatusCancelled},
	ReservationStatusApproved: {ReservationStatusCompleted, ReservationStatusCancelled},
}

func (s ReservationStatus) CanTransition(to ReservationStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Committed reports whether a reservation in this status holds capacity
// against the item for its date range.
func (s ReservationStatus) Committed() bool {
	return s == ReservationStatusPending || s == ReservationStatusApproved
}

type Reservation struct {
	ID             int               `json:"-" db:"id"`
	ReservationUid string            `json:"reservationUid" db:"reservation_uid"`
	ItemUid        string            `json:"itemUid" db:"item_uid"`
	ItemName       string            `json:"itemName" db:"item_name"`
	UserName       string            `json:"username" db:"username"`
	StudentName    string            `json:"studentName" db:"student_name"`
	StudentID      string            `json:"studentId" db:"student_id"`
	Quantity       int               `json:"quantity" db:"quantity"`
	StartDate      time.Time         `json:"startDate" db:"start_date"`
	EndDate        time.Time         `json:"endDate" db:"end_date"`
	Status         ReservationStatus `json:"status" db:"status"`
	Notes          string            `json:"notes" db:"notes"`
	CreatedAt      time.Time         `json:"createdAt" db:"created_at"`
}

type CreateReservationRequest struct {
	ItemUid     string `json:"itemUid" validate:"required,uuid"`
	Quantity    int    `json:"quantity" validate:"required,gte=1"`
	StartDate   Date   `json:"startDate" validate:"required"`
	EndDate     Date   `json:"endDate" validate:"required"`
	StudentName string `json:"studentName" validate:"required"`
	StudentID   string `json:"studentId" validate:"required"`
	Notes       string `json:"notes"`
	UserName    string `json:"-" validate:"required"`
}

type UpdateReservationStatusRequest struct {
	Status ReservationStatus `json:"status" validate:"required"`
}

type ReservationFilter struct {
	Status   ReservationStatus
	UserName string
}

type Stats struct {
	UserName        string    `json:"username" db:"username"`
	LastUpdated     time.Time `json:"lastUpdated" db:"last_updated"`
	CntCheckouts    int       `json:"cntCheckouts" db:"cnt_checkouts"`
	CntReturns      int       `json:"cntReturns" db:"cnt_returns"`
	CntReservations int       `json:"cntReservations" db:"cnt_reservations"`
	QtyCheckedOut   int       `json:"qtyCheckedOut" db:"qty_checked_out"`
}

type StatsInfo struct {
	Data []Stats `json:"data"`
}

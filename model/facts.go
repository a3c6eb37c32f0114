package model

import "time"

// Platform values as recorded on app downloads.
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
)

// ChargeStatusApproved - Charge status denoting a successful payment.
const ChargeStatusApproved = "Approved"

// AgeRangeUnknown - Sentinel category substituted for a missing age
// range so segmented results never drop the row.
const AgeRangeUnknown = "Unknown"

// Download - One record per app installation event.
type Download struct {
	DownloadKey       string    `gorm:"column:app_download_key;primary_key" json:"app_download_key"`
	Platform          string    `gorm:"column:platform" json:"platform"`
	DownloadTimestamp time.Time `gorm:"column:download_ts" json:"download_ts"`
}

func (Download) TableName() string {
	return "app_downloads"
}

// Signup - One record per completed registration. SessionID references
// the download that led to the signup. AgeRange is nullable at source.
type Signup struct {
	UserID          string    `gorm:"column:user_id;primary_key" json:"user_id"`
	SessionID       string    `gorm:"column:session_id" json:"session_id"`
	AgeRange        *string   `gorm:"column:age_range" json:"age_range"`
	SignupTimestamp time.Time `gorm:"column:signup_ts" json:"signup_ts"`
}

func (Signup) TableName() string {
	return "signups"
}

// RideRequest - One record per ride lifecycle. Nil timestamps encode
// "did not reach this stage", not missing data.
type RideRequest struct {
	RideID           string     `gorm:"column:ride_id;primary_key" json:"ride_id"`
	UserID           string     `gorm:"column:user_id" json:"user_id"`
	DriverID         *string    `gorm:"column:driver_id" json:"driver_id"`
	RequestTimestamp *time.Time `gorm:"column:request_ts" json:"request_ts"`
	AcceptTimestamp  *time.Time `gorm:"column:accept_ts" json:"accept_ts"`
	PickupTimestamp  *time.Time `gorm:"column:pickup_ts" json:"pickup_ts"`
	DropoffTimestamp *time.Time `gorm:"column:dropoff_ts" json:"dropoff_ts"`
	CancelTimestamp  *time.Time `gorm:"column:cancel_ts" json:"cancel_ts"`
	PickupLocation   string     `gorm:"column:pickup_location" json:"pickup_location"`
	DropoffLocation  string     `gorm:"column:dropoff_location" json:"dropoff_location"`
}

func (RideRequest) TableName() string {
	return "ride_requests"
}

// Transaction - One record per payment attempt tied to a ride.
type Transaction struct {
	TransactionID     string  `gorm:"column:transaction_id;primary_key" json:"transaction_id"`
	RideID            string  `gorm:"column:ride_id" json:"ride_id"`
	PurchaseAmountUSD float64 `gorm:"column:purchase_amount_usd" json:"purchase_amount_usd"`
	ChargeStatus      string  `gorm:"column:charge_status" json:"charge_status"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// Review - One record per reviewed ride with the submitting user.
type Review struct {
	ReviewID string `gorm:"column:review_id;primary_key" json:"review_id"`
	RideID   string `gorm:"column:ride_id" json:"ride_id"`
	UserID   string `gorm:"column:user_id" json:"user_id"`
	Rating   *int   `gorm:"column:rating" json:"rating"`
	Review   string `gorm:"column:review" json:"review"`
}

func (Review) TableName() string {
	return "reviews"
}

// Snapshot - One immutable bulk read of the five fact relations. The
// aggregator treats it as stable for the duration of a computation; the
// ID tags cached results and export runs.
type Snapshot struct {
	ID           string
	Downloads    []Download
	Signups      []Signup
	RideRequests []RideRequest
	Transactions []Transaction
	Reviews      []Review
}

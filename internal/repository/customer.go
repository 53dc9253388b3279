package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the customer lifecycle stage.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusSubmitted Status = "Submitted"
	StatusVerified  Status = "Verified"
	StatusDelivered Status = "Delivered"
)

// PaymentModeFinance is the payment mode that requires finance details.
const PaymentModeFinance = "Finance"

// Customer columns that transitions may write. Column names never come from
// request input; FieldMask only accepts these.
const (
	ColStatus             = "status"
	ColDOB                = "dob"
	ColAddress            = "address"
	ColMobile1            = "mobile_1"
	ColMobile2            = "mobile_2"
	ColEmail              = "email"
	ColNominee            = "nominee"
	ColNomineeRelation    = "nominee_relation"
	ColPaymentMode        = "payment_mode"
	ColFinanceCompany     = "finance_company"
	ColFinanceAmount      = "finance_amount"
	ColAadharFront        = "aadhar_front"
	ColAadharBack         = "aadhar_back"
	ColPassportPhoto      = "passport_photo"
	ColExShowroom         = "ex_showroom"
	ColTax                = "tax"
	ColInsurance          = "insurance"
	ColBookingFee         = "booking_fee"
	ColAccessories        = "accessories"
	ColAmountPaid         = "amount_paid"
	ColSalesVerified      = "sales_verified"
	ColAccountsVerified   = "accounts_verified"
	ColRTOVerified        = "rto_verified"
	ColChassisNumber      = "chassis_number"
	ColChassisImage       = "chassis_image"
	ColFrontDeliveryPhoto = "front_delivery_photo"
	ColBackDeliveryPhoto  = "back_delivery_photo"
	ColDeliveryPhoto      = "delivery_photo"
)

// PricingColumns are the components summed into total_price.
var PricingColumns = []string{ColExShowroom, ColTax, ColInsurance, ColBookingFee, ColAccessories}

// ImageColumns are the binary columns that can be fetched individually.
var ImageColumns = []string{
	ColAadharFront, ColAadharBack, ColPassportPhoto,
	ColFrontDeliveryPhoto, ColBackDeliveryPhoto, ColDeliveryPhoto,
	ColChassisImage,
}

var customerWritableColumns = map[string]bool{
	ColStatus: true, ColDOB: true, ColAddress: true, ColMobile1: true, ColMobile2: true,
	ColEmail: true, ColNominee: true, ColNomineeRelation: true, ColPaymentMode: true,
	ColFinanceCompany: true, ColFinanceAmount: true, ColAadharFront: true, ColAadharBack: true,
	ColPassportPhoto: true, ColExShowroom: true, ColTax: true, ColInsurance: true,
	ColBookingFee: true, ColAccessories: true, ColAmountPaid: true, ColSalesVerified: true,
	ColAccountsVerified: true, ColRTOVerified: true, ColChassisNumber: true, ColChassisImage: true,
	ColFrontDeliveryPhoto: true, ColBackDeliveryPhoto: true, ColDeliveryPhoto: true,
}

// IsImageColumn reports whether column holds an image blob.
func IsImageColumn(column string) bool {
	for _, c := range ImageColumns {
		if c == column {
			return true
		}
	}
	return false
}

// Customer is one sale moving through the approval pipeline.
type Customer struct {
	ID          int64               `json:"id"`
	CreatedBy   int64               `json:"created_by"`
	Name        string              `json:"customer_name"`
	PhoneNumber string              `json:"phone_number"`
	Vehicle     string              `json:"vehicle"`
	Variant     *string             `json:"variant"`
	Color       *string             `json:"color"`
	Price       decimal.NullDecimal `json:"price"`
	Status      Status              `json:"status"`

	DOB             *time.Time          `json:"dob"`
	Address         *string             `json:"address"`
	Mobile1         *string             `json:"mobile_1"`
	Mobile2         *string             `json:"mobile_2"`
	Email           *string             `json:"email"`
	Nominee         *string             `json:"nominee"`
	NomineeRelation *string             `json:"nominee_relation"`
	PaymentMode     *string             `json:"payment_mode"`
	FinanceCompany  *string             `json:"finance_company"`
	FinanceAmount   decimal.NullDecimal `json:"finance_amount"`
	AadharFront     []byte              `json:"aadhar_front,omitempty"`
	AadharBack      []byte              `json:"aadhar_back,omitempty"`
	PassportPhoto   []byte              `json:"passport_photo,omitempty"`

	ExShowroom  decimal.NullDecimal `json:"ex_showroom"`
	Tax         decimal.NullDecimal `json:"tax"`
	Insurance   decimal.NullDecimal `json:"insurance"`
	BookingFee  decimal.NullDecimal `json:"booking_fee"`
	Accessories decimal.NullDecimal `json:"accessories"`
	TotalPrice  decimal.Decimal     `json:"total_price"`
	AmountPaid  decimal.Decimal     `json:"amount_paid"`

	SalesVerified    bool `json:"sales_verified"`
	AccountsVerified bool `json:"accounts_verified"`
	RTOVerified      bool `json:"rto_verified"`

	ChassisNumber      *string `json:"chassis_number"`
	ChassisImage       []byte  `json:"chassis_image,omitempty"`
	FrontDeliveryPhoto []byte  `json:"front_delivery_photo,omitempty"`
	BackDeliveryPhoto  []byte  `json:"back_delivery_photo,omitempty"`
	DeliveryPhoto      []byte  `json:"delivery_photo,omitempty"`

	CreatedByName *string   `json:"created_by_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PricingTotal sums the five pricing components, treating absent ones as zero.
func (c *Customer) PricingTotal() decimal.Decimal {
	total := decimal.Zero
	for _, d := range []decimal.NullDecimal{c.ExShowroom, c.Tax, c.Insurance, c.BookingFee, c.Accessories} {
		if d.Valid {
			total = total.Add(d.Decimal)
		}
	}
	return total
}

// Image returns the blob stored in an image column.
func (c *Customer) Image(column string) []byte {
	switch column {
	case ColAadharFront:
		return c.AadharFront
	case ColAadharBack:
		return c.AadharBack
	case ColPassportPhoto:
		return c.PassportPhoto
	case ColFrontDeliveryPhoto:
		return c.FrontDeliveryPhoto
	case ColBackDeliveryPhoto:
		return c.BackDeliveryPhoto
	case ColDeliveryPhoto:
		return c.DeliveryPhoto
	case ColChassisImage:
		return c.ChassisImage
	}
	return nil
}

// Listing selects which image columns a customer listing carries. Images
// left out are never read from the store.
type Listing int

const (
	// ListingNoImages carries no image columns.
	ListingNoImages Listing = iota
	// ListingIdentityDocuments carries the aadhar and passport images only.
	ListingIdentityDocuments
)

// Keeps reports whether the listing carries the image column.
func (l Listing) Keeps(column string) bool {
	if l != ListingIdentityDocuments {
		return false
	}
	return column == ColAadharFront || column == ColAadharBack || column == ColPassportPhoto
}

// Apply clears the image columns the listing does not carry.
func (l Listing) Apply(c *Customer) {
	if !l.Keeps(ColAadharFront) {
		c.StripIdentityDocuments()
	}
	c.ChassisImage = nil
	c.FrontDeliveryPhoto = nil
	c.BackDeliveryPhoto = nil
	c.DeliveryPhoto = nil
}

// StripIdentityDocuments clears the identity-document blobs. Used for views
// that must not carry them.
func (c *Customer) StripIdentityDocuments() {
	c.AadharFront = nil
	c.AadharBack = nil
	c.PassportPhoto = nil
}

package bookings

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dryd-travel/booking-backend/internal/availability"
	"github.com/dryd-travel/booking-backend/internal/quote"
	"github.com/dryd-travel/booking-backend/pkg/auth"
	"github.com/dryd-travel/booking-backend/pkg/enums"
	pkgerrors "github.com/dryd-travel/booking-backend/pkg/errors"
	"github.com/dryd-travel/booking-backend/pkg/money"
	"github.com/dryd-travel/booking-backend/pkg/types"
)

const (
	referencePrefix   = "DRYD"
	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referenceSuffix   = 4

	defaultMaxProofBytes = 10 << 20
)

var allowedProofTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"image/heic":      true,
	"application/pdf": true,
}

// ProofFile is the uploaded payment screenshot or receipt.
type ProofFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Input holds the customer-entered fields that are not part of the priced selection.
type Input struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Address         string
	SpecialRequests string
	AgreedToTerms   bool

	PickupLocation     string
	DropoffLocation    string
	PickupCoordinates  *types.Coordinates
	DropoffCoordinates *types.Coordinates

	AmountPaid             string
	ManualPaymentReference string
	PaymentProof           *ProofFile
}

// Submission is the accepted booking in the shape the booking API receives it.
type Submission struct {
	FirstName              string                     `json:"firstName"`
	LastName               string                     `json:"lastName"`
	Email                  string                     `json:"email"`
	Phone                  string                     `json:"phone"`
	Address                string                     `json:"address"`
	StartDate              time.Time                  `json:"startDate"`
	EndDate                *time.Time                 `json:"endDate,omitempty"`
	Time                   string                     `json:"time"`
	NumberOfDays           int                        `json:"numberOfDays"`
	NumberOfGuests         int                        `json:"numberOfGuests"`
	SpecialRequests        string                     `json:"specialRequests,omitempty"`
	AgreedToTerms          bool                       `json:"agreedToTerms"`
	PickupLocation         string                     `json:"pickupLocation,omitempty"`
	DropoffLocation        string                     `json:"dropoffLocation,omitempty"`
	PickupCoordinates      string                     `json:"pickupCoordinates,omitempty"`
	DropoffCoordinates     string                     `json:"dropoffCoordinates,omitempty"`
	DeliveryMethod         enums.DeliveryMethod       `json:"deliveryMethod,omitempty"`
	AmountPaid             string                     `json:"amountPaid"`
	ManualPaymentReference string                     `json:"manualPaymentReference"`
	PaymentReference       string                     `json:"paymentReference"`
	TotalPrice             string                     `json:"totalPrice"`
	ItemName               string                     `json:"itemName"`
	ItemID                 uuid.UUID                  `json:"itemId"`
	ItemType               enums.ItemType             `json:"itemType"`
	PaymentOption          enums.PaymentOption        `json:"paymentOption"`
	TransportDestination   string                     `json:"transportDestination,omitempty"`
	TransportServiceType   enums.TransportServiceType `json:"transportServiceType,omitempty"`
	OriginalPrice          string                     `json:"originalPrice,omitempty"`
	DiscountApplied        string                     `json:"discountApplied,omitempty"`
	PromotionTitle         string                     `json:"promotionTitle,omitempty"`

	Quote           quote.Quote        `json:"-"`
	AmountPaidCents int64              `json:"-"`
	Pickup          *types.Coordinates `json:"-"`
	Dropoff         *types.Coordinates `json:"-"`
	PaymentProof    *ProofFile         `json:"-"`
	UserID          *uuid.UUID         `json:"-"`
}

// Assembler validates a submission and builds its payload.
type Assembler struct {
	MaxProofBytes int64

	now      func() time.Time
	random   io.Reader
	validate *validator.Validate
}

func NewAssembler(maxProofBytes int64) *Assembler {
	if maxProofBytes <= 0 {
		maxProofBytes = defaultMaxProofBytes
	}
	return &Assembler{
		MaxProofBytes: maxProofBytes,
		now:           time.Now,
		random:        rand.Reader,
		validate:      validator.New(),
	}
}

// Assemble runs the submission checks in order and stops at the first failure.
// A downpayment choice without a session is refused before anything else.
func (a *Assembler) Assemble(item quote.Item, sel quote.Selection, q quote.Quote, in Input, booked availability.DateSet, session auth.Session) (*Submission, error) {
	if sel.PaymentOption == enums.PaymentOptionDownpayment && !session.Authenticated {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Please log in to pay with a downpayment.")
	}

	if err := availability.CheckSelection(item.Type, sel, q, booked); err != nil {
		var conflict *availability.ConflictError
		if errors.As(err, &conflict) {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict,
				"The selected dates include %s, which is already booked. Please choose different dates.", conflict.Date).
				WithDetails(map[string]string{"date": conflict.Date})
		}
		return nil, err
	}

	if err := a.checkBaseFields(sel, in); err != nil {
		return nil, err
	}
	if err := a.checkPaymentFields(in); err != nil {
		return nil, err
	}
	if err := checkTypeFields(item, sel, q, in); err != nil {
		return nil, err
	}
	if !in.AgreedToTerms {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Please agree to the terms and conditions.")
	}

	paid, err := money.ParseAmount(in.AmountPaid)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Please enter a valid amount paid, e.g. 1500.00.")
	}
	if paid != q.RequiredPaymentCents {
		return nil, pkgerrors.Newf(pkgerrors.CodePayment,
			"The amount paid (₱%s) must match the required payment of ₱%s.", money.Format(paid), money.Format(q.RequiredPaymentCents)).
			WithDetails(map[string]string{"required": money.Format(q.RequiredPaymentCents), "entered": money.Format(paid)})
	}

	ref, err := a.Reference()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate payment reference")
	}
	return a.build(item, sel, q, in, session, paid, ref), nil
}

func (a *Assembler) checkBaseFields(sel quote.Selection, in Input) error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"firstName", in.FirstName},
		{"lastName", in.LastName},
		{"email", in.Email},
		{"phone", in.Phone},
		{"address", in.Address},
		{"time", sel.Time},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if sel.StartDate == nil {
		missing = append(missing, "startDate")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Please fill in all required fields.").
			WithDetails(map[string][]string{"missing": missing})
	}
	if err := a.validate.Var(strings.TrimSpace(in.Email), "email"); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "Please enter a valid email address.")
	}
	return nil
}

func (a *Assembler) checkPaymentFields(in Input) error {
	var missing []string
	if in.PaymentProof == nil || len(in.PaymentProof.Data) == 0 {
		missing = append(missing, "paymentProof")
	}
	if strings.TrimSpace(in.AmountPaid) == "" {
		missing = append(missing, "amountPaid")
	}
	if strings.TrimSpace(in.ManualPaymentReference) == "" {
		missing = append(missing, "manualPaymentReference")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Please upload your payment proof and enter the amount paid and bank reference number.").
			WithDetails(map[string][]string{"missing": missing})
	}
	if int64(len(in.PaymentProof.Data)) > a.MaxProofBytes {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "Payment proof must be at most %d MB.", a.MaxProofBytes>>20)
	}
	if !allowedProofTypes[normalizeContentType(in.PaymentProof.ContentType)] {
		return pkgerrors.New(pkgerrors.CodeValidation, "Payment proof must be an image or a PDF.")
	}
	return nil
}

func checkTypeFields(item quote.Item, sel quote.Selection, q quote.Quote, in Input) error {
	switch item.Type {
	case enums.ItemTypeCar:
		if sel.NumberOfDays < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "Please choose how many days you need the car.")
		}
		if sel.NumberOfDays > quote.MaxDays {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "A car can be booked for at most %d days.", quote.MaxDays)
		}
		if deliveryMethod(sel) == enums.DeliveryMethodDelivery {
			if strings.TrimSpace(in.DropoffLocation) == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "Please enter where the car should be delivered.")
			}
		} else if strings.TrimSpace(in.PickupLocation) == "" && strings.TrimSpace(item.PickupLocation) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "Please choose a pickup location.")
		}
	case enums.ItemTypeTour:
		if sel.NumberOfGuests < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "Please enter the number of guests.")
		}
		if sel.NumberOfGuests > quote.MaxGuests {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "A booking can include at most %d guests.", quote.MaxGuests)
		}
		if item.MaxGroupSize > 0 && sel.NumberOfGuests > item.MaxGroupSize {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "This tour takes at most %d guests.", item.MaxGroupSize)
		}
	case enums.ItemTypeTransport:
		if strings.TrimSpace(sel.TransportDestination) == "" || !sel.TransportServiceType.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "Please choose a destination and service type.")
		}
		if q.BaseCents <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "The selected service is not available for this destination.")
		}
		if item.Capacity > 0 && sel.NumberOfGuests > item.Capacity {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "This vehicle seats at most %d passengers.", item.Capacity)
		}
	}
	return nil
}

func (a *Assembler) build(item quote.Item, sel quote.Selection, q quote.Quote, in Input, session auth.Session, paid int64, ref string) *Submission {
	sub := &Submission{
		FirstName:              strings.TrimSpace(in.FirstName),
		LastName:               strings.TrimSpace(in.LastName),
		Email:                  strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:                  strings.TrimSpace(in.Phone),
		Address:                strings.TrimSpace(in.Address),
		StartDate:              availability.Day(*sel.StartDate),
		EndDate:                q.EndDate,
		Time:                   strings.TrimSpace(sel.Time),
		NumberOfDays:           sel.NumberOfDays,
		NumberOfGuests:         sel.NumberOfGuests,
		SpecialRequests:        strings.TrimSpace(in.SpecialRequests),
		AgreedToTerms:          in.AgreedToTerms,
		AmountPaid:             money.Format(paid),
		ManualPaymentReference: strings.TrimSpace(in.ManualPaymentReference),
		PaymentReference:       ref,
		TotalPrice:             money.Format(q.TotalCents),
		ItemName:               item.Name,
		ItemID:                 item.ID,
		ItemType:               item.Type,
		PaymentOption:          q.PaymentOption,
		Quote:                  q,
		AmountPaidCents:        paid,
		PaymentProof:           in.PaymentProof,
		UserID:                 session.UserIDPtr(),
	}

	switch item.Type {
	case enums.ItemTypeCar:
		sub.DeliveryMethod = deliveryMethod(sel)
		if sub.DeliveryMethod == enums.DeliveryMethodDelivery {
			sub.DropoffLocation = strings.TrimSpace(in.DropoffLocation)
			sub.Dropoff = in.DropoffCoordinates
		} else {
			sub.PickupLocation = firstNonBlank(in.PickupLocation, item.PickupLocation)
			sub.Pickup = in.PickupCoordinates
		}
	case enums.ItemTypeTransport:
		sub.TransportDestination = strings.TrimSpace(sel.TransportDestination)
		sub.TransportServiceType = sel.TransportServiceType
		sub.PickupLocation = strings.TrimSpace(in.PickupLocation)
		sub.DropoffLocation = strings.TrimSpace(in.DropoffLocation)
		sub.Pickup = in.PickupCoordinates
		sub.Dropoff = in.DropoffCoordinates
	}
	sub.PickupCoordinates = encodeCoordinates(sub.Pickup)
	sub.DropoffCoordinates = encodeCoordinates(sub.Dropoff)

	if q.PromotionApplied() {
		sub.OriginalPrice = money.Format(q.BaseCents)
		sub.DiscountApplied = money.Format(q.DiscountCents)
		sub.PromotionTitle = q.PromotionTitle
	}
	return sub
}

// Reference returns a payment reference like DRYD-LXK2J9QA-7QZC.
func (a *Assembler) Reference() (string, error) {
	stamp := strings.ToUpper(strconv.FormatInt(a.now().UnixMilli(), 36))
	suffix := make([]byte, referenceSuffix)
	size := big.NewInt(int64(len(referenceAlphabet)))
	for i := range suffix {
		n, err := rand.Int(a.random, size)
		if err != nil {
			return "", err
		}
		suffix[i] = referenceAlphabet[n.Int64()]
	}
	return referencePrefix + "-" + stamp + "-" + string(suffix), nil
}

func deliveryMethod(sel quote.Selection) enums.DeliveryMethod {
	if sel.DeliveryMethod == enums.DeliveryMethodDelivery {
		return enums.DeliveryMethodDelivery
	}
	return enums.DeliveryMethodPickup
}

func encodeCoordinates(c *types.Coordinates) string {
	if c == nil {
		return ""
	}
	b, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return string(b)
}

func normalizeContentType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "image/jpg" {
		return "image/jpeg"
	}
	return ct
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

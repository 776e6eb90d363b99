// internal/mpesa/models.go

package mpesa

import (
	"time"

	"github.com/shopspring/decimal"
)

// What a payment request pays for
const (
	PurposeSubscription = "subscription"
	PurposeSuperlikes   = "superlikes"
)

// ResultCodeSuccess is the M-Pesa result code of a completed payment
const ResultCodeSuccess = 0

// Request is one STK push we sent to the gateway
type Request struct {
	ID                int64           `json:"id" db:"id"`
	UserID            int64           `json:"user_id" db:"user_id"`
	Purpose           string          `json:"purpose" db:"purpose"`
	PlanID            *int64          `json:"plan_id,omitempty" db:"plan_id"`
	Amount            decimal.Decimal `json:"amount" db:"amount"`
	Phone             string          `json:"phone" db:"phone"`
	ExternalReference string          `json:"external_reference" db:"external_reference"`
	CheckoutRequestID string          `json:"checkout_request_id" db:"checkout_request_id"`
	Success           bool            `json:"success" db:"success"`
	Status            string          `json:"status" db:"status"`
	Reference         string          `json:"reference" db:"reference"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// Payment is a payment confirmation, normally written by the webhook
type Payment struct {
	ID                 int64           `json:"id" db:"id"`
	Amount             decimal.Decimal `json:"amount" db:"amount"`
	CheckoutRequestID  string          `json:"checkout_request_id" db:"checkout_request_id"`
	ExternalReference  string          `json:"external_reference" db:"external_reference"`
	MerchantRequestID  string          `json:"merchant_request_id" db:"merchant_request_id"`
	MpesaReceiptNumber string          `json:"mpesa_receipt_number" db:"mpesa_receipt_number"`
	Phone              string          `json:"phone" db:"phone"`
	ResultCode         int             `json:"result_code" db:"result_code"`
	ResultDesc         string          `json:"result_desc" db:"result_desc"`
	Status             string          `json:"status" db:"status"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// Succeeded reports whether M-Pesa accepted the payment
func (p *Payment) Succeeded() bool {
	return p.ResultCode == ResultCodeSuccess
}

// PlanPaymentRequest starts a subscription payment
type PlanPaymentRequest struct {
	Phone  string `json:"phone" validate:"required,ke_phone"`
	PlanID int64  `json:"plan_id" validate:"required,gt=0"`
}

// ChargeRequest is an STK push on behalf of another package
type ChargeRequest struct {
	UserID  int64
	Purpose string
	PlanID  *int64
	Amount  decimal.Decimal
	Phone   string
}

// CreatePaymentRequest records a payment by hand (admin)
type CreatePaymentRequest struct {
	Amount             decimal.Decimal `json:"amount"`
	CheckoutRequestID  string          `json:"checkout_request_id" validate:"required,max=100"`
	ExternalReference  string          `json:"external_reference" validate:"required,max=100"`
	MerchantRequestID  string          `json:"merchant_request_id" validate:"required,max=100"`
	MpesaReceiptNumber string          `json:"mpesa_receipt_number" validate:"required,max=50"`
	Phone              string          `json:"phone" validate:"required,max=20"`
	ResultCode         *int            `json:"result_code" validate:"required"`
	ResultDesc         string          `json:"result_desc" validate:"required,max=255"`
	Status             string          `json:"status" validate:"required,max=50"`
}

// UpdatePaymentRequest lists the columns an admin may patch
type UpdatePaymentRequest struct {
	Amount             *decimal.Decimal `json:"amount"`
	MpesaReceiptNumber *string          `json:"mpesa_receipt_number" validate:"omitempty,max=50"`
	Phone              *string          `json:"phone" validate:"omitempty,max=20"`
	ResultCode         *int             `json:"result_code"`
	ResultDesc         *string          `json:"result_desc" validate:"omitempty,max=255"`
	Status             *string          `json:"status" validate:"omitempty,max=50"`
}

type RequestFilter struct {
	UserID  *int64
	Purpose *string
	Limit   int
	Offset  int
}

type PaymentFilter struct {
	Status *string
	Phone  *string
	Limit  int
	Offset int
}

// Callback is the webhook body PayHero posts
type Callback struct {
	Status   bool             `json:"status"`
	Response CallbackResponse `json:"response"`
}

type CallbackResponse struct {
	Amount             decimal.Decimal `json:"Amount"`
	CheckoutRequestID  string          `json:"CheckoutRequestID"`
	ExternalReference  string          `json:"ExternalReference"`
	MerchantRequestID  string          `json:"MerchantRequestID"`
	MpesaReceiptNumber string          `json:"MpesaReceiptNumber"`
	Phone              string          `json:"Phone"`
	ResultCode         int             `json:"ResultCode"`
	ResultDesc         string          `json:"ResultDesc"`
	Status             string          `json:"Status"`
}

func (c *Callback) payment() *Payment {
	r := c.Response
	return &Payment{
		Amount:             r.Amount,
		CheckoutRequestID:  r.CheckoutRequestID,
		ExternalReference:  r.ExternalReference,
		MerchantRequestID:  r.MerchantRequestID,
		MpesaReceiptNumber: r.MpesaReceiptNumber,
		Phone:              r.Phone,
		ResultCode:         r.ResultCode,
		ResultDesc:         r.ResultDesc,
		Status:             r.Status,
	}
}

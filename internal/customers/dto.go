package customers

import "github.com/abasto-pos/abasto-pos/internal/credit"

// createCustomerRequest is the JSON body for POST /customers.
type createCustomerRequest struct {
	FullName        string  `json:"fullname" validate:"required,max=160"`
	Phone           string  `json:"phone" validate:"required,max=32"`
	SocialMedia     *string `json:"social_media,omitempty" validate:"omitempty,max=64"`
	SocialMediaName *string `json:"social_media_name,omitempty" validate:"omitempty,max=160"`
	Address         *string `json:"address,omitempty" validate:"omitempty,max=240"`
}

func (req createCustomerRequest) toInput() CreateCustomerInput {
	return CreateCustomerInput{
		FullName:        req.FullName,
		Phone:           req.Phone,
		SocialMedia:     req.SocialMedia,
		SocialMediaName: req.SocialMediaName,
		Address:         req.Address,
	}
}

// customerResponse decorates a customer with its score label and formatted
// pending balance.
type customerResponse struct {
	*Customer
	CreditScoreLabel        credit.ScoreLabel `json:"credit_score_label"`
	PendingPaymentsFormatted string           `json:"pending_payments_formatted"`
}

func newCustomerResponse(c *Customer) customerResponse {
	return customerResponse{
		Customer:                 c,
		CreditScoreLabel:         credit.LabelForScore(c.CreditScore),
		PendingPaymentsFormatted: c.PendingPaymentsAmount.Format(),
	}
}

// paymentInfoResponse decorates the outstanding position with formatted
// amounts for the counter screen.
type paymentInfoResponse struct {
	*PaymentInfo
	TotalPendingFormatted    string `json:"total_pending_formatted"`
	ExpectedPaymentFormatted string `json:"expected_payment_formatted"`
}

func newPaymentInfoResponse(info *PaymentInfo) paymentInfoResponse {
	return paymentInfoResponse{
		PaymentInfo:              info,
		TotalPendingFormatted:    info.TotalPendingPayment.Format(),
		ExpectedPaymentFormatted: info.ExpectedPaymentAmount.Format(),
	}
}

// listResponse is the paginated customer listing envelope.
type listResponse struct {
	Customers  []customerResponse `json:"customers"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PerPage    int                `json:"per_page"`
	TotalPages int                `json:"total_pages"`
}

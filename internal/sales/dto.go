package sales

import (
	"time"

	"github.com/abasto-pos/abasto-pos/internal/money"
)

// createSaleItemRequest is one requested sale line.
type createSaleItemRequest struct {
	ProductID     int64    `json:"product_id" validate:"required,gt=0"`
	StockLotID    int64    `json:"stock_lot_id" validate:"required,gt=0"`
	Quantity      int      `json:"quantity" validate:"required,gt=0"`
	OverridePrice *float64 `json:"override_price,omitempty" validate:"omitempty,gt=0"`
}

// createSaleRequest is the JSON body for POST /sales. Amounts arrive as
// decimal numbers and are converted to minor units at the boundary.
type createSaleRequest struct {
	Items         []createSaleItemRequest `json:"items" validate:"required,min=1,dive"`
	CustomerID    *int64                  `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	CustomerName  string                  `json:"customer_name,omitempty" validate:"omitempty,max=160"`
	PaymentType   string                  `json:"payment_type" validate:"required,oneof=cash credit"`
	Deposit       float64                 `json:"deposit" validate:"gte=0"`
	DepositDate   *time.Time              `json:"deposit_date,omitempty"`
	PaymentMethod string                  `json:"payment_method" validate:"required,oneof=cash card transfer"`
	SellerID      int64                   `json:"seller_id" validate:"required,gt=0"`
}

func (req createSaleRequest) toInput() (CreateSaleInput, error) {
	deposit, err := money.FromFloat(req.Deposit)
	if err != nil {
		return CreateSaleInput{}, err
	}
	input := CreateSaleInput{
		CustomerID:    req.CustomerID,
		CustomerName:  req.CustomerName,
		PaymentType:   PaymentType(req.PaymentType),
		Deposit:       deposit,
		PaymentMethod: PaymentMethod(req.PaymentMethod),
		SellerID:      req.SellerID,
	}
	if req.DepositDate != nil {
		input.DepositDate = *req.DepositDate
	}
	for _, item := range req.Items {
		in := CreateSaleItemInput{
			ProductID:  item.ProductID,
			StockLotID: item.StockLotID,
			Quantity:   item.Quantity,
		}
		if item.OverridePrice != nil {
			price, err := money.FromFloat(*item.OverridePrice)
			if err != nil {
				return CreateSaleInput{}, err
			}
			in.OverridePrice = &price
		}
		input.Items = append(input.Items, in)
	}
	return input, nil
}

// recordPaymentRequest is the JSON body for POST /sales/{id}/payments.
type recordPaymentRequest struct {
	Amount     float64    `json:"amount" validate:"required,gt=0"`
	Method     string     `json:"method" validate:"required,oneof=cash card transfer"`
	ReceivedBy int64      `json:"received_by" validate:"required,gt=0"`
	Date       *time.Time `json:"date,omitempty"`
}

// saleResponse decorates a sale with display-formatted amounts.
type saleResponse struct {
	*Sale
	TotalAmountFormatted   string `json:"total_amount_formatted"`
	PaidAmountFormatted    string `json:"paid_amount_formatted"`
	PendingAmountFormatted string `json:"pending_amount_formatted"`
	InstallmentFormatted   string `json:"installment_formatted,omitempty"`
}

func newSaleResponse(sale *Sale) saleResponse {
	resp := saleResponse{
		Sale:                   sale,
		TotalAmountFormatted:   sale.TotalAmount.Format(),
		PaidAmountFormatted:    sale.PaidAmount.Format(),
		PendingAmountFormatted: sale.PendingAmount.Format(),
	}
	if sale.IsCredit() {
		resp.InstallmentFormatted = sale.Installment.Format()
	}
	return resp
}

// listResponse is the paginated sale listing envelope.
type listResponse struct {
	Sales      []saleResponse `json:"sales"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PerPage    int            `json:"per_page"`
	TotalPages int            `json:"total_pages"`
}

package credit

import (
	"errors"
	"time"

	"github.com/abasto-pos/abasto-pos/internal/money"
	"github.com/abasto-pos/abasto-pos/internal/schedule"
)

// DefaultInstallments is the number of installments in the standard plan.
const DefaultInstallments = 6

// ErrInvalidTerms indicates a deposit larger than the total amount.
var ErrInvalidTerms = errors.New("credit: deposit exceeds total amount")

// Terms describes the repayment plan derived at sale creation.
type Terms struct {
	Pending         money.Money
	Installment     money.Money
	NextPaymentDate time.Time
	EndDate         time.Time
}

// ComputeTerms derives the repayment plan for a credit sale.
//
// The installment is the pending balance divided by the installment count,
// rounded half up. Rounding drift is absorbed by the last payment at
// settlement; it is not trued up here.
func ComputeTerms(total, deposit money.Money, start time.Time, installments int) (Terms, error) {
	pending := total - deposit
	if pending < 0 {
		return Terms{}, ErrInvalidTerms
	}
	if installments <= 0 {
		installments = DefaultInstallments
	}
	n := money.Money(installments)
	return Terms{
		Pending:         pending,
		Installment:     (pending + n/2) / n,
		NextPaymentDate: schedule.NextPaymentDate(start),
		EndDate:         schedule.CreditEndDate(start),
	}, nil
}

package bankero

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// resolveBasis turns a BasisSpec into the Basis recorded on the event.
//
// A fixed literal is validated (positive amount, known commodity) and
// returned unchanged. A provider token is valued through the rate resolver:
// the event's commodity priced against the validator's reference commodity
// at the event's effective time. An absent spec is valid and yields no
// basis tracking for the event.
func (v *Validator) resolveBasis(spec *BasisSpec, amount decimal.Decimal, commodity string, effectiveAt time.Time) (*Basis, error) {
	if spec == nil {
		return nil, nil
	}
	if spec.Provider != "" {
		if commodity == v.referenceCommodity() {
			// Already denominated in the reference commodity.
			return &Basis{Kind: BasisProvider, Amount: amount, Commodity: commodity, Provider: spec.Provider}, nil
		}
		rate, err := v.Rates.Resolve(ProviderRef{Name: spec.Provider}, commodity, v.referenceCommodity(), effectiveAt)
		if err != nil {
			return nil, fmt.Errorf("basis via %s (%s->%s): %w: %w", spec.Provider, commodity, v.referenceCommodity(), ErrBasisUnresolved, err)
		}
		return &Basis{
			Kind:      BasisProvider,
			Amount:    amount.Mul(rate),
			Commodity: v.referenceCommodity(),
			Provider:  spec.Provider,
		}, nil
	}
	if !spec.Amount.IsPositive() {
		return nil, fmt.Errorf("fixed basis %s: %w", spec.Amount, ErrNegativeAmount)
	}
	if err := ValidateCommodity(spec.Commodity); err != nil {
		return nil, fmt.Errorf("fixed basis: %w", err)
	}
	return &Basis{Kind: BasisFixed, Amount: spec.Amount, Commodity: spec.Commodity}, nil
}

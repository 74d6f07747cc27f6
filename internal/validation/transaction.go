package validation

import (
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/request"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
)

// ValidateCreateTransaction validates a transaction creation request.
//
// Required fields:
//   - symbol: 1 to 32 characters
//   - assetClass: EQUITY, REALESTATE_FUND or CRYPTO
//   - side: BUY or SELL
//   - quantity, unitPrice: positive
//   - fees: zero or positive
//   - executedAt: YYYY-MM-DD or RFC3339
//
// operationType applies to equity and crypto only, retentionPeriod to
// real-estate funds only, and foreignCustody to crypto only.
func ValidateCreateTransaction(req request.CreateTransactionRequest) error {
	errors := make(map[string]string)
	if err := validateStruct(req, errors); err != nil {
		return err
	}

	checkPositive(errors, "quantity", req.Quantity)
	checkPositive(errors, "unitPrice", req.UnitPrice)
	checkNotNegative(errors, "fees", req.Fees)

	if _, ok := errors["executedAt"]; !ok {
		if _, err := request.ParseTimestamp(req.ExecutedAt); err != nil {
			errors["executedAt"] = err.Error()
		}
	}

	checkFlags(errors, model.AssetClass(req.AssetClass), req.OperationType, req.RetentionPeriod, req.ForeignCustody)

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateUpdateTransaction validates a transaction update request.
// All fields are optional, but if provided, they must meet the same constraints as create.
// Cross-field rules are checked by the service once the update is merged.
func ValidateUpdateTransaction(req request.UpdateTransactionRequest) error {
	errors := make(map[string]string)
	if err := validateStruct(req, errors); err != nil {
		return err
	}

	if req.Quantity != nil {
		checkPositive(errors, "quantity", *req.Quantity)
	}
	if req.UnitPrice != nil {
		checkPositive(errors, "unitPrice", *req.UnitPrice)
	}
	if req.Fees != nil {
		checkNotNegative(errors, "fees", *req.Fees)
	}
	if req.ExecutedAt != nil {
		if _, err := request.ParseTimestamp(*req.ExecutedAt); err != nil {
			errors["executedAt"] = err.Error()
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateTransaction applies the cross-field rules to a merged transaction.
func ValidateTransaction(t model.Transaction) error {
	errors := make(map[string]string)
	checkFlags(errors, t.AssetClass, string(t.OperationType), string(t.RetentionPeriod), t.ForeignCustody)
	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

func checkPositive(errors map[string]string, field string, d decimal.Decimal) {
	if !d.IsPositive() {
		errors[field] = field + " must be positive"
	}
}

func checkNotNegative(errors map[string]string, field string, d decimal.Decimal) {
	if d.IsNegative() {
		errors[field] = field + " must not be negative"
	}
}

func checkFlags(errors map[string]string, class model.AssetClass, operationType, retention string, foreignCustody bool) {
	switch class {
	case model.AssetClassEquity:
		if retention != "" {
			errors["retentionPeriod"] = "retentionPeriod applies to real-estate funds only"
		}
		if foreignCustody {
			errors["foreignCustody"] = "foreignCustody applies to crypto only"
		}
	case model.AssetClassRealEstateFund:
		if operationType != "" {
			errors["operationType"] = "operationType applies to equity and crypto only"
		}
		if foreignCustody {
			errors["foreignCustody"] = "foreignCustody applies to crypto only"
		}
	case model.AssetClassCrypto:
		if retention != "" {
			errors["retentionPeriod"] = "retentionPeriod applies to real-estate funds only"
		}
	}
}

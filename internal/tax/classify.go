package tax

import (
	"fmt"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
)

// Classify maps an asset class and transaction flags to a tax category.
// Rules are checked in order and the first match wins:
//
//	crypto + foreign custody  -> CRYPTO_FOREIGN
//	equity + day trade        -> EQUITY_DAYTRADE
//	equity                    -> EQUITY_SWING
//	crypto                    -> CRYPTO_DOMESTIC
//	real-estate fund          -> REALESTATE_FUND
//
// The day-trade flag is ignored outside equities and the foreign-custody flag
// outside crypto.
func Classify(class model.AssetClass, dayTrade, foreignCustody bool) (model.Category, error) {
	switch {
	case class == model.AssetClassCrypto && foreignCustody:
		return model.CategoryCryptoForeign, nil
	case class == model.AssetClassEquity && dayTrade:
		return model.CategoryEquityDayTrade, nil
	case class == model.AssetClassEquity:
		return model.CategoryEquitySwing, nil
	case class == model.AssetClassCrypto:
		return model.CategoryCryptoDomestic, nil
	case class == model.AssetClassRealEstateFund:
		return model.CategoryRealEstateFund, nil
	}
	return 0, fmt.Errorf("%w: %q", apperrors.ErrInvalidAssetClass, class)
}

// ClassifyTransaction classifies a transaction using its own flags.
func ClassifyTransaction(t model.Transaction) (model.Category, error) {
	return Classify(t.AssetClass, t.IsDayTrade(), t.ForeignCustody)
}

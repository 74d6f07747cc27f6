package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrUserNotFound indicates that no taxpayer profile exists for the given user ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrAssetNotFound indicates that an asset position with the given ID does not exist for the user.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrTransactionNotFound indicates that a transaction with the given ID does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrLiabilityNotFound indicates that no liability document exists for the user, period and scope.
	ErrLiabilityNotFound = errors.New("liability document not found")

	// ErrSymbolNotFound indicates that a quote lookup returned no results.
	ErrSymbolNotFound = errors.New("symbol not found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrConcurrentRecompute indicates that another recompute for the same user is running.
	// Callers are expected to retry later.
	ErrConcurrentRecompute = errors.New("recompute already in progress for user")

	// ErrInvalidPeriod indicates a malformed year/month pair or an inverted period range.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrInvalidCategory indicates a value outside the closed set of tax categories.
	ErrInvalidCategory = errors.New("invalid tax category")

	// ErrInvalidAssetClass indicates a value outside the supported asset classes.
	ErrInvalidAssetClass = errors.New("invalid asset class")

	// ErrInvalidReportScope indicates a report scope other than equity, fund, crypto or consolidated.
	ErrInvalidReportScope = errors.New("invalid report scope")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrMissingUserID indicates a request arrived without a resolved user identity.
	ErrMissingUserID = errors.New("user ID is required")

	// ErrAssetClassMismatch indicates a transaction for a symbol already held under another asset class.
	ErrAssetClassMismatch = errors.New("symbol already held under a different asset class")
)

// Operation failure errors represent collaborator or system-level failures.
// These errors indicate that an operation failed, but not due to missing entities or validation issues.
var (
	ErrFailedToRetrieveTransactions = errors.New("failed to retrieve transactions")
	ErrFailedToRetrieveTransaction  = errors.New("failed to retrieve transaction")
	ErrFailedToRetrieveAssets       = errors.New("failed to retrieve assets")
	ErrFailedToRetrieveResults      = errors.New("failed to retrieve monthly results")
	ErrFailedToRetrieveLiabilities  = errors.New("failed to retrieve liability documents")
	ErrFailedToRecompute            = errors.New("failed to recompute monthly results")
	ErrFailedToGenerateReport       = errors.New("failed to generate report")
	ErrFailedToGetDashboard         = errors.New("failed to get dashboard summary")
	ErrFailedToExport               = errors.New("failed to export monthly results")
	ErrFailedToGetVersionInfo       = errors.New("failed to get version information")

	// ErrRenderFailed indicates the document renderer could not produce an artifact.
	ErrRenderFailed = errors.New("failed to render liability document")

	// ErrArtifactStoreFailed indicates the artifact store could not persist or release an artifact.
	ErrArtifactStoreFailed = errors.New("artifact store operation failed")

	// ErrNotificationFailed indicates the notifier rejected or could not deliver a notice.
	ErrNotificationFailed = errors.New("failed to send notification")

	// ErrQuoteUnavailable indicates that the spot-price provider returned no usable price.
	ErrQuoteUnavailable = errors.New("quote unavailable")
)

// Data integrity errors represent inconsistencies or corruption in the data.
var (
	// ErrDataInconsistency indicates that the stored data is in an inconsistent state
	// (e.g., a transaction references an asset owned by another user).
	ErrDataInconsistency = errors.New("data inconsistency detected")

	// ErrDecryptionFailed indicates an encrypted column could not be decrypted with the configured keys.
	ErrDecryptionFailed = errors.New("failed to decrypt stored value")
)

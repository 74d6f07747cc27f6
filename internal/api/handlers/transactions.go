package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/request"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/response"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/service"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/validation"
)

// TransactionHandler handles HTTP requests for transaction endpoints.
// Writes go through the service's recompute pipeline, so a successful
// response means the affected months are already recomputed.
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler with the provided service dependency.
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// Transactions lists the caller's transactions, oldest first.
//
// Endpoint: GET /api/transaction?assetId=&from=&to=
// Response: 200 OK with array of model.Transaction
// Error: 400 Bad Request if a filter is malformed
func (h *TransactionHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := request.ParseTransactionFilter(userID(r), q.Get("assetId"), q.Get("from"), q.Get("to"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid filter", err.Error())
		return
	}

	transactions, err := h.transactionService.ListTransactions(r.Context(), filter)
	if err != nil {
		respondServiceError(w, apperrors.ErrFailedToRetrieveTransactions.Error(), err)
		return
	}

	response.RespondJSON(w, http.StatusOK, transactions)
}

// GetTransaction returns a single transaction.
//
// Endpoint: GET /api/transaction/{uuid}
// Response: 200 OK with model.Transaction
// Error: 404 Not Found if the transaction does not belong to the caller
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	transaction, err := h.transactionService.GetTransaction(r.Context(), userID(r), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, apperrors.ErrFailedToRetrieveTransaction.Error(), err)
		return
	}

	response.RespondJSON(w, http.StatusOK, transaction)
}

// CreateTransaction records a buy or sell.
//
// Endpoint: POST /api/transaction
// Request Body: CreateTransactionRequest
// Response: 201 Created with model.Transaction
// Error: 400 Bad Request if validation fails or the symbol is held under another class
// Error: 409 Conflict if a recompute for the caller is already running
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateTransactionRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateTransaction(req); err != nil {
		respondServiceError(w, "validation failed", err)
		return
	}

	transaction, err := h.transactionService.CreateTransaction(r.Context(), userID(r), req)
	if err != nil {
		respondServiceError(w, "failed to create transaction", err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, transaction)
}

// UpdateTransaction changes any subset of a transaction's fields.
//
// Endpoint: PUT /api/transaction/{uuid}
// Request Body: UpdateTransactionRequest (all fields optional)
// Response: 200 OK with the updated model.Transaction
// Error: 400 Bad Request if validation fails
// Error: 404 Not Found if the transaction does not belong to the caller
// Error: 409 Conflict if a recompute for the caller is already running
func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.UpdateTransactionRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdateTransaction(req); err != nil {
		respondServiceError(w, "validation failed", err)
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(r.Context(), userID(r), chi.URLParam(r, "uuid"), req)
	if err != nil {
		respondServiceError(w, "failed to update transaction", err)
		return
	}

	response.RespondJSON(w, http.StatusOK, transaction)
}

// DeleteTransaction removes a transaction.
//
// Endpoint: DELETE /api/transaction/{uuid}
// Response: 204 No Content
// Error: 404 Not Found if the transaction does not belong to the caller
// Error: 409 Conflict if a recompute for the caller is already running
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.transactionService.DeleteTransaction(r.Context(), userID(r), chi.URLParam(r, "uuid")); err != nil {
		respondServiceError(w, "failed to delete transaction", err)
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

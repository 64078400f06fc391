package handlers

import (
	"context"
	"net/http"

	"canteen-api/services"

	"github.com/gin-gonic/gin"
)

type WalletRequest struct {
	UserID      *uint  `json:"userId"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	PaymentRef  string `json:"paymentRef"`
}

// GetWallet returns the current balance
func (h *Handler) GetWallet(c *gin.Context) {
	requested, ok := queryUserID(c)
	if !ok {
		return
	}
	userID, ok := actingUser(c, requested)
	if !ok {
		return
	}

	balance, err := h.Wallet.GetBalance(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "balance": balance})
}

// GetTransactions returns the balance together with the full ledger, oldest first
func (h *Handler) GetTransactions(c *gin.Context) {
	requested, ok := queryUserID(c)
	if !ok {
		return
	}
	userID, ok := actingUser(c, requested)
	if !ok {
		return
	}

	wallet, err := h.Wallet.Wallet(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"balance":      wallet.Balance,
		"transactions": wallet.Transactions,
	})
}

// Credit tops up a wallet
func (h *Handler) Credit(c *gin.Context) {
	h.applyWallet(c, "Wallet credited", h.Wallet.Credit)
}

// Debit pays from a wallet; it fails without changes when the balance is too low
func (h *Handler) Debit(c *gin.Context) {
	h.applyWallet(c, "Wallet debited", h.Wallet.Debit)
}

type walletOp func(ctx context.Context, userID uint, amount int64, entry services.Entry) (int64, error)

func (h *Handler) applyWallet(c *gin.Context, message string, op walletOp) {
	var req WalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, ok := actingUser(c, req.UserID)
	if !ok {
		return
	}

	balance, err := op(c.Request.Context(), userID, req.Amount, services.Entry{
		Description: req.Description,
		PaymentRef:  req.PaymentRef,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"user_id": userID,
		"balance": balance,
	})
}

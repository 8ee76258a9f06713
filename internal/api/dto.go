package api

import (
	"time"

	"github.com/fastprodman/cashcow/internal/repos/accounts"
	"github.com/fastprodman/cashcow/internal/repos/deposits"
	"github.com/fastprodman/cashcow/internal/repos/messages"
	"github.com/fastprodman/cashcow/internal/repos/notifications"
	"github.com/fastprodman/cashcow/internal/services/escrow"
)

type depositRequest struct {
	Amount int64 `json:"amount" validate:"gt=0"`
}

type productRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Price int64  `json:"price" validate:"gt=0"`
}

type purchaseRequest struct {
	SellerID string         `json:"sellerId" validate:"required,max=128"`
	Product  productRequest `json:"product"`
}

type messageRequest struct {
	ReceiverID string `json:"receiverId" validate:"required,max=128"`
	Body       string `json:"body" validate:"required,max=2000"`
}

type balanceResponse struct {
	AccountID string `json:"accountId"`
	Balance   int64  `json:"balance"`
}

type depositResponse struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Amount    int64     `json:"amount"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"createdAt"`
}

type entryResponse struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Delta        int64     `json:"delta"`
	BalanceAfter int64     `json:"balanceAfter"`
	Reference    string    `json:"reference,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type productResponse struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

type escrowResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount int64  `json:"amount"`
}

type purchaseResponse struct {
	ID        string          `json:"id"`
	BuyerID   string          `json:"buyerId"`
	SellerID  string          `json:"sellerId"`
	Product   productResponse `json:"product"`
	Status    string          `json:"status"`
	Escrow    *escrowResponse `json:"escrow,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type notificationResponse struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	PurchaseID string    `json:"purchaseId,omitempty"`
	Body       string    `json:"body"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"createdAt"`
}

type messageResponse struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Body       string    `json:"body"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toPurchaseResponse(p escrow.Purchase) purchaseResponse {
	out := purchaseResponse{
		ID:        p.ID,
		BuyerID:   p.BuyerID,
		SellerID:  p.SellerID,
		Product:   productResponse{Name: p.ProductName, Price: p.Price},
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}

	if p.EscrowID != "" {
		out.Escrow = &escrowResponse{ID: p.EscrowID, Status: string(p.EscrowStatus), Amount: p.EscrowAmount}
	}

	return out
}

func toEntryResponses(entries []accounts.Entry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:           e.ID,
			Kind:         string(e.Kind),
			Delta:        e.Delta,
			BalanceAfter: e.BalanceAfter,
			Reference:    e.Reference,
			CreatedAt:    e.CreatedAt,
		})
	}

	return out
}

func toDepositResponses(reqs []deposits.Request) []depositResponse {
	out := make([]depositResponse, 0, len(reqs))
	for _, d := range reqs {
		out = append(out, depositResponse{
			ID:        d.ID,
			AccountID: d.AccountID,
			Amount:    d.Amount,
			Balance:   d.ResultingBalance,
			CreatedAt: d.CreatedAt,
		})
	}

	return out
}

func toNotificationResponses(list []notifications.Notification) []notificationResponse {
	out := make([]notificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, notificationResponse{
			ID:         n.ID,
			Kind:       string(n.Kind),
			PurchaseID: n.PurchaseID,
			Body:       n.Body,
			Read:       n.Read,
			CreatedAt:  n.CreatedAt,
		})
	}

	return out
}

func toMessageResponse(m messages.Message) messageResponse {
	return messageResponse{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Body:       m.Body,
		Read:       m.Read,
		CreatedAt:  m.CreatedAt,
	}
}

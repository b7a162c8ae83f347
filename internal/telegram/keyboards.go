package telegram

import (
	"fmt"
	"net/url"

	"github.com/go-telegram/bot/models"

	"tg_store_bot/internal/domain"
	"tg_store_bot/internal/shop"
)

const qrEndpoint = "https://api.qrserver.com/v1/create-qr-code/"

func mainMenuKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🛒 Catalog", CallbackData: dataCatalog},
				{Text: "💰 Balance", CallbackData: dataBalance},
			},
			{
				{Text: "💳 Deposit", CallbackData: dataDeposit},
				{Text: "ℹ️ Help", CallbackData: dataHelp},
			},
		},
	}
}

func catalogKeyboard(groups []shop.Group) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(groups)+1)
	for _, g := range groups {
		rows = append(rows, []models.InlineKeyboardButton{
			{
				Text:         fmt.Sprintf("%s — %d (%d left)", g.Name, g.Price, g.Count),
				CallbackData: groupData(g.Name, g.Price),
			},
		})
	}
	rows = append(rows, backRow())

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func unitKeyboard(account domain.Account) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: fmt.Sprintf("Buy for %d", account.Price), CallbackData: buyData(account.Email)},
			},
			{
				{Text: "⬅️ Back to catalog", CallbackData: dataCatalog},
			},
		},
	}
}

func paymentKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ I have paid", CallbackData: dataPayConfirm},
				{Text: "❌ Cancel", CallbackData: dataPayCancel},
			},
		},
	}
}

func backRow() []models.InlineKeyboardButton {
	return []models.InlineKeyboardButton{
		{Text: "⬅️ Main menu", CallbackData: dataMenu},
	}
}

func backKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{backRow()},
	}
}

// qrURL renders the simulated payment QR: it encodes the transaction id and
// amount through a public QR image endpoint. There is no PSP behind it.
func qrURL(payment domain.PendingPayment) string {
	payload := fmt.Sprintf("PAY|%s|%d", payment.TransactionID, payment.Nominal)
	query := url.Values{}
	query.Set("size", "300x300")
	query.Set("data", payload)

	return qrEndpoint + "?" + query.Encode()
}

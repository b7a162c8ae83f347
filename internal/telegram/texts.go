package telegram

import (
	"fmt"
	"time"

	"tg_store_bot/internal/domain"
	"tg_store_bot/internal/payment"
	"tg_store_bot/internal/shop"
	"tg_store_bot/internal/store"
)

const (
	textBanned              = "You are banned from using this bot. Contact the administrator if you believe this is a mistake."
	textAutoBanned          = "You have been banned for sending messages too quickly."
	textUnknownAction       = "This button is no longer valid."
	textUnknownCommand      = "Unknown command. See /help."
	textCatalogEmpty        = "The catalog is empty right now. Check back later."
	textCatalogHeader       = "Available products — pick one:"
	textStockGone           = "Sorry, that item was just sold out."
	textNeedStart           = "Please run /start first."
	textNoBalance           = "Your balance does not cover this price. Top up first."
	textNoPending           = "You have no pending deposit."
	textDepositCancelled    = "Your deposit request was cancelled. No funds were charged."
	textTryAgain            = "Something went wrong, please try again."
	textUnbanned            = "You have been unbanned. Welcome back."
	textRestockPrompt       = "Send stock lines, one account per line:\nemail|name|price|password|description|note"
	textRestockEmpty        = "No valid stock lines found. Expected: email|name|price|password|description|note"
	textTargetNotFound      = "That user is not registered."
	textTargetNoPending     = "That user has no pending deposit."
	textDepositCancelledByAdmin = "Your pending deposit was cancelled by the administrator."
)

func welcomeText(botName string) string {
	return fmt.Sprintf("Welcome to %s!\n\nBrowse the catalog, top up your balance, and your purchase is delivered instantly.", botName)
}

func menuText(botName string) string {
	return fmt.Sprintf("%s — main menu:", botName)
}

func helpText(botName, adminUsername string) string {
	return fmt.Sprintf(
		"%s sells digital accounts.\n\n"+
			"• Catalog — browse and buy with your balance\n"+
			"• Deposit — top up via QR transfer\n"+
			"• Balance — see your funds\n\n"+
			"Questions? Contact %s.",
		botName, adminUsername)
}

func unitText(account domain.Account) string {
	text := fmt.Sprintf("%s\nPrice: %d", account.Name, account.Price)
	if account.Description != "" {
		text += "\n\n" + account.Description
	}
	return text
}

func receiptText(receipt shop.Receipt) string {
	text := fmt.Sprintf(
		"Purchase complete!\n\nEmail: %s\nPassword: %s",
		receipt.Account.Email, receipt.Account.Password)
	if receipt.Account.Note != "" {
		text += "\nNote: " + receipt.Account.Note
	}
	text += fmt.Sprintf("\n\nRemaining balance: %d", receipt.NewBalance)
	return text
}

func balanceText(balance int64) string {
	return fmt.Sprintf("Your balance: %d", balance)
}

func depositPromptText(min, max int64) string {
	return fmt.Sprintf("How much would you like to deposit? Send an amount between %d and %d.", min, max)
}

func depositInvalidText(min, max int64) string {
	return fmt.Sprintf("That is not a valid amount. Send a whole number between %d and %d.", min, max)
}

func depositInstructionsText(record domain.PendingPayment, adminUsername string, ttl time.Duration) string {
	text := fmt.Sprintf(
		"Deposit request %s\n\nNominal: %d",
		record.TransactionID, record.Nominal)
	if record.BonusAmount > 0 {
		text += fmt.Sprintf("\nBonus: %d\nYou will receive: %d", record.BonusAmount, record.TotalAdded)
	}
	text += fmt.Sprintf(
		"\n\nScan the QR code and transfer the exact nominal, then tap \"I have paid\"."+
			"\nThis request expires in %d minutes. Questions? Contact %s.",
		int(ttl.Minutes()), adminUsername)
	return text
}

func depositCreditedText(conf payment.Confirmation) string {
	return fmt.Sprintf(
		"Deposit confirmed!\n\nNominal: %d\nBonus: %d\nCredited: %d\n\nYour balance: %d",
		conf.Pending.Nominal, conf.Pending.BonusAmount, conf.Pending.TotalAdded, conf.NewBalance)
}

func restockDoneText(added, malformed int) string {
	text := fmt.Sprintf("Added %d unit(s) to stock.", added)
	if malformed > 0 {
		text += fmt.Sprintf(" Skipped %d malformed line(s).", malformed)
	}
	return text
}

func statsText(stats store.Stats) string {
	return fmt.Sprintf(
		"Users: %d\nStock: %d\nTransactions: %d\nUptime: %s",
		stats.Users, stats.Stock, stats.Transactions, stats.Uptime.Round(time.Second))
}

func adminAutoBanText(userID int64) string {
	return fmt.Sprintf("Auto-ban: user %d exceeded the spam limit and was banned.", userID)
}

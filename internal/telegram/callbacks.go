package telegram

import (
	"fmt"
	"strconv"
	"strings"
)

// callbackKind enumerates every inline-button action the bot emits. The set is
// closed: dispatchCallback switches over it exhaustively, so a new button
// forces a visible update there.
type callbackKind int

const (
	cbUnknown callbackKind = iota
	cbMenu
	cbCatalog
	cbBalance
	cbDeposit
	cbHelp
	cbGroup
	cbBuy
	cbPayConfirm
	cbPayCancel
)

// Wire prefixes and literals for callback data.
const (
	dataMenu       = "menu"
	dataCatalog    = "catalog"
	dataBalance    = "balance"
	dataDeposit    = "deposit"
	dataHelp       = "help"
	dataPayConfirm = "pay_confirm"
	dataPayCancel  = "pay_cancel"
	prefixGroup    = "group:"
	prefixBuy      = "buy:"
)

// callbackAction is the decoded form of a callback payload.
type callbackAction struct {
	kind  callbackKind
	key   string // account key for cbBuy
	name  string // group name for cbGroup
	price int64  // group price for cbGroup
}

// parseCallback decodes callback data. Unknown payloads map to cbUnknown and
// are answered with a generic toast rather than ignored silently.
func parseCallback(data string) callbackAction {
	switch data {
	case dataMenu:
		return callbackAction{kind: cbMenu}
	case dataCatalog:
		return callbackAction{kind: cbCatalog}
	case dataBalance:
		return callbackAction{kind: cbBalance}
	case dataDeposit:
		return callbackAction{kind: cbDeposit}
	case dataHelp:
		return callbackAction{kind: cbHelp}
	case dataPayConfirm:
		return callbackAction{kind: cbPayConfirm}
	case dataPayCancel:
		return callbackAction{kind: cbPayCancel}
	}

	if rest, ok := strings.CutPrefix(data, prefixBuy); ok && rest != "" {
		return callbackAction{kind: cbBuy, key: rest}
	}

	// group:<price>:<name> — the name goes last because it may contain colons.
	if rest, ok := strings.CutPrefix(data, prefixGroup); ok {
		priceRaw, name, found := strings.Cut(rest, ":")
		if !found || name == "" {
			return callbackAction{kind: cbUnknown}
		}
		price, err := strconv.ParseInt(priceRaw, 10, 64)
		if err != nil || price <= 0 {
			return callbackAction{kind: cbUnknown}
		}
		return callbackAction{kind: cbGroup, name: name, price: price}
	}

	return callbackAction{kind: cbUnknown}
}

func groupData(name string, price int64) string {
	return fmt.Sprintf("%s%d:%s", prefixGroup, price, name)
}

func buyData(accountKey string) string {
	return prefixBuy + accountKey
}

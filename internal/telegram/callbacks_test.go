package telegram

import "testing"

func TestParseCallback(t *testing.T) {
	tests := []struct {
		name string
		data string
		want callbackAction
	}{
		{name: "menu", data: "menu", want: callbackAction{kind: cbMenu}},
		{name: "catalog", data: "catalog", want: callbackAction{kind: cbCatalog}},
		{name: "balance", data: "balance", want: callbackAction{kind: cbBalance}},
		{name: "deposit", data: "deposit", want: callbackAction{kind: cbDeposit}},
		{name: "help", data: "help", want: callbackAction{kind: cbHelp}},
		{name: "pay confirm", data: "pay_confirm", want: callbackAction{kind: cbPayConfirm}},
		{name: "pay cancel", data: "pay_cancel", want: callbackAction{kind: cbPayCancel}},
		{name: "buy", data: "buy:a@x.com", want: callbackAction{kind: cbBuy, key: "a@x.com"}},
		{name: "group", data: "group:50000:Netflix", want: callbackAction{kind: cbGroup, name: "Netflix", price: 50000}},
		{name: "group name with colon", data: "group:50000:Netflix: 4K", want: callbackAction{kind: cbGroup, name: "Netflix: 4K", price: 50000}},
		{name: "empty", data: "", want: callbackAction{kind: cbUnknown}},
		{name: "garbage", data: "bogus", want: callbackAction{kind: cbUnknown}},
		{name: "buy without key", data: "buy:", want: callbackAction{kind: cbUnknown}},
		{name: "group without name", data: "group:50000:", want: callbackAction{kind: cbUnknown}},
		{name: "group without price", data: "group:Netflix", want: callbackAction{kind: cbUnknown}},
		{name: "group bad price", data: "group:abc:Netflix", want: callbackAction{kind: cbUnknown}},
		{name: "group negative price", data: "group:-5:Netflix", want: callbackAction{kind: cbUnknown}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := parseCallback(tt.data)
			if got != tt.want {
				t.Fatalf("parseCallback(%q) = %+v, want %+v", tt.data, got, tt.want)
			}
		})
	}
}

func TestCallbackDataRoundTrip(t *testing.T) {
	action := parseCallback(groupData("Netflix: 4K", 50000))
	if action.kind != cbGroup || action.name != "Netflix: 4K" || action.price != 50000 {
		t.Fatalf("group data did not round-trip: %+v", action)
	}

	action = parseCallback(buyData("a@x.com"))
	if action.kind != cbBuy || action.key != "a@x.com" {
		t.Fatalf("buy data did not round-trip: %+v", action)
	}
}

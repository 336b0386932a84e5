package core

import "testing"

func TestValue(t *testing.T) {
	tests := []struct {
		name      string
		holdings  []HoldingsItem
		wantGross int64
		wantNet   int64
	}{
		{
			name: "two positions with haircut",
			holdings: []HoldingsItem{
				{Quantity: 2, UnitPrice: Money{Cents: 1000}},
				{Quantity: 1, UnitPrice: Money{Cents: 500}},
			},
			wantGross: 2500,
			wantNet:   2125, // 25.00 * 0.85
		},
		{
			name:      "empty portfolio",
			holdings:  nil,
			wantGross: 0,
			wantNet:   0,
		},
		{
			name: "zero quantity contributes nothing",
			holdings: []HoldingsItem{
				{Quantity: 0, UnitPrice: Money{Cents: 99999}},
			},
			wantGross: 0,
			wantNet:   0,
		},
		{
			name: "haircut rounds half up",
			holdings: []HoldingsItem{
				{Quantity: 1, UnitPrice: Money{Cents: 10}}, // 0.10 * 0.85 = 0.085
			},
			wantGross: 10,
			wantNet:   9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gross, net := Value(tt.holdings)
			if gross.Cents != tt.wantGross {
				t.Errorf("gross = %d, want %d", gross.Cents, tt.wantGross)
			}
			if net.Cents != tt.wantNet {
				t.Errorf("net = %d, want %d", net.Cents, tt.wantNet)
			}
		})
	}
}

func TestItemNetValue(t *testing.T) {
	h := HoldingsItem{Quantity: 3, UnitPrice: Money{Cents: 250}}
	if got := ItemNetValue(h); got.Cents != 638 { // 7.50 * 0.85 = 6.375 -> 6.38
		t.Errorf("ItemNetValue = %d, want 638", got.Cents)
	}
}

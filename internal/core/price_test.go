package core

import "testing"

func TestParsePriceToCents(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{name: "euro comma decimal", in: "2,50€", want: 250},
		{name: "dollar dot decimal", in: "$3.40", want: 340},
		{name: "thousands separator", in: "1.234,56€", want: 123456},
		{name: "placeholder double dash", in: "2,--€", want: 200},
		{name: "placeholder single dash", in: "0,-€", want: 0},
		{name: "plain number", in: "12.34", want: 1234},
		{name: "surrounding whitespace", in: "  4,20€ ", want: 420},
		{name: "empty", in: "", wantErr: true},
		{name: "garbage", in: "n/a", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePriceToCents(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePriceToCents(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got.Cents != tt.want {
				t.Errorf("ParsePriceToCents(%q) = %d, want %d", tt.in, got.Cents, tt.want)
			}
		})
	}
}

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "12.34", want: 1234},
		{in: "12,34", want: 1234},
		{in: "12.344", want: 1234}, // third decimal rounds down
		{in: "12.345", want: 1235}, // half rounds up
		{in: "12.346", want: 1235},
		{in: "0", want: 0},
		{in: ".5", want: 50},
		{in: "-3", wantErr: true},
		{in: "+3", wantErr: true},
		{in: "1.2.3", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDecimalToCents(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

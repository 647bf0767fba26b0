package steps

import "testing"

func TestFormatFee(t *testing.T) {
	cases := map[float64]string{
		0:         "₹0 per semester",
		999:       "₹999 per semester",
		35000:     "₹35,000 per semester",
		42499.6:   "₹42,500 per semester",
		125000:    "₹125,000 per semester",
		1234567.0: "₹1,234,567 per semester",
	}
	for fee, want := range cases {
		if got := FormatFee(fee); got != want {
			t.Fatalf("FormatFee(%v): want=%q got=%q", fee, want, got)
		}
	}
}

package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDescription(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Rent August", "rent"},
		{"Rent Sept.", "rent"},
		{"RENT - december 2025", "rent #"},
		{"Electricity bill #4411 (Oct)", "electricity bill #"},
		{"Water  bill, Jan-2026", "water bill #"},
		{"", ""},
		{"May rent", "rent"},
		{"Home loan EMI 12/24", "home loan emi #"},
		{"Electricity ₹1,250", "electricity #"},
		{"Electricity ₹980", "electricity #"},
		{"Power bill ₹1,250.50 Aug", "power bill #"},
		{"Flat 4B rent", "flat #b rent"},
		{"2025 Aug 2026 rent", "# rent"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDescription(tt.in))
		})
	}
}

func TestNormalizeDescription_CollapsesMonths(t *testing.T) {
	assert.Equal(t, NormalizeDescription("Rent August"), NormalizeDescription("Rent Sept"))
	assert.Equal(t, NormalizeDescription("Gas bill 03"), NormalizeDescription("gas bill 11"))
}

func TestNormalizeDescription_FormattedAmountsGroupTogether(t *testing.T) {
	base := NormalizeDescription("Electricity ₹980")
	for _, desc := range []string{"Electricity ₹1,250", "Electricity ₹1,250.75", "Electricity ₹ 980 (Sep)"} {
		assert.Equal(t, base, NormalizeDescription(desc), desc)
	}
}

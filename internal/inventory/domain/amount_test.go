package domain

import (
	"testing"

	"github.com/omiam/omiam-backend/pkg/testutil"
	"github.com/shopspring/decimal"
)

func checked(check func(decimal.Decimal) error) func(string) (bool, error) {
	return func(in string) (bool, error) {
		return true, check(dec(in))
	}
}

func TestCheckQuantity(t *testing.T) {
	testutil.RunTestCases(t, []testutil.TestCase[string, bool]{
		{Name: "whole", Input: "12", Expected: true},
		{Name: "three decimals", Input: "0.125", Expected: true},
		{Name: "trailing zeros beyond scale", Input: "1.5000", Expected: true},
		{Name: "negative delta", Input: "-4.5", Expected: true},
		{Name: "largest storable", Input: "99999999999.999", Expected: true},
		{Name: "four decimals", Input: "0.0004", WantErr: true, ErrMsg: "at most 3 decimal places"},
		{Name: "overflow", Input: "100000000000", WantErr: true, ErrMsg: "must be less than"},
	}, checked(CheckQuantity))
}

func TestCheckCost(t *testing.T) {
	testutil.RunTestCases(t, []testutil.TestCase[string, bool]{
		{Name: "four decimals", Input: "0.0125", Expected: true},
		{Name: "five decimals", Input: "0.01255", WantErr: true, ErrMsg: "at most 4 decimal places"},
		{Name: "overflow", Input: "10000000000", WantErr: true},
	}, checked(CheckCost))
}

func TestCheckPrice(t *testing.T) {
	testutil.RunTestCases(t, []testutil.TestCase[string, bool]{
		{Name: "cents", Input: "3.50", Expected: true},
		{Name: "fraction of a cent", Input: "3.505", WantErr: true},
	}, checked(CheckPrice))
}

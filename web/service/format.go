package service

import (
	"strconv"

	"github.com/shopspring/decimal"
)

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func count(v int64) string {
	return strconv.FormatInt(v, 10)
}

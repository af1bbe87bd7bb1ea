package currency

import "strconv"

// Display conventions are plain data so that adding a currency is a data
// change, not a logic change.

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "¥",
	"INR": "₹",
	"KRW": "₩",
	"VND": "₫",
	"RUB": "₽",
	"UAH": "₴",
	"KZT": "₸",
	"UZS": "so'm",
	"IDR": "Rp",
	"PLN": "zł",
	"TRY": "₺",
}

// Currencies conventionally written without a fractional part.
var zeroDecimal = map[string]bool{
	"VND": true,
	"JPY": true,
	"KRW": true,
	"IDR": true,
	"UZS": true,
}

// Currencies whose symbol follows the amount.
var symbolSuffix = map[string]bool{
	"RUB": true,
	"UAH": true,
	"KZT": true,
	"UZS": true,
	"VND": true,
	"PLN": true,
}

// FormatAmount renders an amount with the display conventions of the given
// currency code: its symbol, decimal places and symbol placement. Unknown
// codes fall back to the code itself as a prefix.
func FormatAmount(amount float64, code string) string {
	decimals := 2
	if zeroDecimal[code] {
		decimals = 0
	}
	value := strconv.FormatFloat(amount, 'f', decimals, 64)

	symbol, known := symbols[code]
	if !known {
		return code + " " + value
	}
	if symbolSuffix[code] {
		return value + " " + symbol
	}
	return symbol + value
}

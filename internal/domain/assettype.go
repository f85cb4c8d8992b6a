package domain

import (
	"regexp"
	"slices"
	"strings"
)

// AssetType classifies a ticker into the bucket that decides which quote provider is queried.
// The zero value means the asset has not been classified yet.
type AssetType string

const (
	AssetTypeB3Stock AssetType = "B3_STOCK"
	AssetTypeB3FII   AssetType = "B3_FII"
	AssetTypeUSStock AssetType = "US_STOCK"
	AssetTypeCrypto  AssetType = "CRYPTO"
)

// Valid reports whether t is one of the four known asset types.
func (t AssetType) Valid() bool {
	switch t {
	case AssetTypeB3Stock, AssetTypeB3FII, AssetTypeUSStock, AssetTypeCrypto:
		return true
	}
	return false
}

// IsB3 reports whether t is quoted on the Brazilian exchange.
func (t AssetType) IsB3() bool {
	return t == AssetTypeB3Stock || t == AssetTypeB3FII
}

var (
	b3FIIPattern    = regexp.MustCompile(`[A-Z]{4}11$`)
	b3StockPattern  = regexp.MustCompile(`[A-Z]{4}[3-9]$`)
	b3UnitPattern   = regexp.MustCompile(`[A-Z]{4}1[0-2]$`)
	cryptoAllowList = []string{
		"BTC", "ETH", "BNB", "SOL", "ADA", "XRP", "DOT", "MATIC", "AVAX", "LINK",
		"UNI", "ATOM", "LTC", "BCH", "XLM", "ALGO", "VET", "ICP", "FIL", "SAND",
		"MANA", "AXS", "THETA", "EGLD", "AAVE", "EOS", "CAKE", "GRT", "RUNE", "FTM",
	}
)

// CryptoSymbols returns a copy of the recognized cryptocurrency symbols.
func CryptoSymbols() []string {
	return slices.Clone(cryptoAllowList)
}

// NormalizeTicker uppercases and trims a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// DetectAssetType classifies a ticker by its lexical shape.
// The FII check runs before the generic B3 unit check: "XXXX11" matches both.
func DetectAssetType(ticker string) AssetType {
	normalized := NormalizeTicker(ticker)

	if b3FIIPattern.MatchString(normalized) {
		return AssetTypeB3FII
	}

	if b3StockPattern.MatchString(normalized) || b3UnitPattern.MatchString(normalized) {
		return AssetTypeB3Stock
	}

	if slices.Contains(cryptoAllowList, normalized) {
		return AssetTypeCrypto
	}

	return AssetTypeUSStock
}

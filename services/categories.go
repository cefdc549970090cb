package services

// Legal-status labels.
const (
	LegalPendingTitle    = "Dang_cho_so"
	LegalDepositContract = "Hop_dong_dat_coc"
	LegalSaleContract    = "Hop_dong_mua_ban"
	LegalOther           = "Khac"
	LegalPinkBook        = "So_hong_rieng"
)

// Furnishing labels.
const (
	FurnishingPremium = "Cao_cap"
	FurnishingBasic   = "Co_ban"
	FurnishingFull    = "Day_du"
	FurnishingNone    = "Khong_noi_that"
	FurnishingShell   = "Tho"
)

// CategoryMapper resolves an integer code to its canonical label. Codes not
// in the table, and missing codes, resolve to Default.
type CategoryMapper struct {
	Attribute string
	Table     map[int]string
	Default   string
	// Labels is the complete, alphabetically sorted label set including Default.
	Labels []string
}

// LegalStatusMapper maps legal_status_code values.
var LegalStatusMapper = CategoryMapper{
	Attribute: "legal_status",
	Table: map[int]string{
		2: LegalPendingTitle,
		4: LegalDepositContract,
		5: LegalSaleContract,
		6: LegalPinkBook,
	},
	Default: LegalOther,
	Labels:  []string{LegalPendingTitle, LegalDepositContract, LegalSaleContract, LegalOther, LegalPinkBook},
}

// FurnishingMapper maps furnishing_code values.
var FurnishingMapper = CategoryMapper{
	Attribute: "furnishing",
	Table: map[int]string{
		1: FurnishingPremium,
		2: FurnishingFull,
		3: FurnishingBasic,
		4: FurnishingShell,
	},
	Default: FurnishingNone,
	Labels:  []string{FurnishingPremium, FurnishingBasic, FurnishingFull, FurnishingNone, FurnishingShell},
}

// Map returns the label for code, or Default when code is nil or unknown.
func (m CategoryMapper) Map(code *int) string {
	if code == nil {
		return m.Default
	}
	if label, ok := m.Table[*code]; ok {
		return label
	}
	return m.Default
}

// Reference is the category encoded as an all-zero one-hot block.
func (m CategoryMapper) Reference() string {
	return m.Labels[0]
}

// Valid reports whether label belongs to the fixed label set.
func (m CategoryMapper) Valid(label string) bool {
	for _, l := range m.Labels {
		if l == label {
			return true
		}
	}
	return false
}

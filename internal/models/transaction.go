package models

import "time"

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

type Transaction struct {
	ID          string
	AccountID   string
	Type        TransactionType
	Date        time.Time
	Category    string
	Amount      int64 // smallest currency unit
	Description string
	CreatedAt   time.Time
}

// Categories mirrors the entry form's static category sets.
var Categories = map[TransactionType][]string{
	TransactionTypeIncome: {
		"Gaji", "Freelance", "Investasi", "Bonus", "Hadiah", "Penjualan", "Lainnya",
	},
	TransactionTypeExpense: {
		"Makanan", "Minuman", "Transportasi", "Belanja", "Hiburan",
		"Kesehatan", "Pendidikan", "Tagihan", "Rumah Tangga", "Lainnya",
	},
}

func ValidCategory(t TransactionType, category string) bool {
	for _, c := range Categories[t] {
		if c == category {
			return true
		}
	}
	return false
}

package domain

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryFood     Category = "food"
	CategoryBeverage Category = "beverage"
)

// ParseCategory normalizes user input into one of the two menu categories.
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryFood:
		return CategoryFood, true
	case CategoryBeverage:
		return CategoryBeverage, true
	}
	return "", false
}

type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"product"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Price       int64     `json:"price"`
	ImageURL    string    `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
}

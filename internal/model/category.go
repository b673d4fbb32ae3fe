package model

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Category описывает категорию товара из фиксированного набора.
type Category string

// Categories перечисляет известные категории. Первая используется для нераспознанных значений.
var Categories = []Category{
	"Хоол",
	"Хүнс",
	"Бөөнний түгээлт",
	"Урьдчилсан захиалга",
	"Кофе амттан",
	"Алкохол",
	"Гэр ахуй & хүүхэд",
	"Эргэнэтэд үйлдвэрлэв",
	"Бэлэг & гоо сайхан",
	"Гадаад захиалга",
}

// DefaultCategory возвращает категорию для нераспознанных значений.
func DefaultCategory() Category {
	return Categories[0]
}

// LookupCategory ищет категорию без учёта окружающих пробелов и формы Unicode-нормализации.
func LookupCategory(value string) (Category, bool) {
	key := canonical(value)
	for _, c := range Categories {
		if canonical(string(c)) == key {
			return c, true
		}
	}
	return "", false
}

// ParseCategory возвращает известную категорию или категорию по умолчанию.
func ParseCategory(value string) Category {
	if c, ok := LookupCategory(value); ok {
		return c
	}
	return DefaultCategory()
}

// Equal сравнивает категории в канонической форме.
func (c Category) Equal(other Category) bool {
	return canonical(string(c)) == canonical(string(other))
}

func canonical(value string) string {
	return norm.NFC.String(strings.TrimSpace(value))
}

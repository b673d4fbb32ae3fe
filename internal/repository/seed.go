package repository

import (
	"context"
	"fmt"
	"time"
)

// seedProducts содержит демонстрационный каталог локального бэкенда.
var seedProducts = []Product{
	{Name: "Бууз", Price: 3500, Category: "Хоол", Image: "buuz.jpg", Description: "Гар хийцийн бууз, 10 ширхэг"},
	{Name: "Хуушуур", Price: 2500, Category: "Хоол", Image: "khuushuur.jpg"},
	{Name: "Гурил 25кг", Price: 42000, Category: "Хүнс"},
	{Name: "Будаа 10кг", Price: 38000, Category: "Бөөнний түгээлт"},
	{Name: "Латте", Price: 7500, Category: "Кофе амттан", Image: "latte.jpg"},
	{Name: "Хүүхдийн живх", Price: 29900, Category: "Гэр ахуй & хүүхэд"},
	{Name: "Цэцгийн баглаа", Price: 55000, Category: "Бэлэг & гоо сайхан", Description: "Хүргэлттэй"},
}

// Seed наполняет хранилище демонстрационным каталогом. Более новые товары получают более позднее время создания.
func Seed(ctx context.Context, repo *MemoryRepository) error {
	base := repo.now().UTC().Add(-time.Duration(len(seedProducts)) * time.Minute)
	for i, p := range seedProducts {
		p.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := repo.AddProduct(ctx, p); err != nil {
			return fmt.Errorf("seed product %q: %w", p.Name, err)
		}
	}
	return nil
}

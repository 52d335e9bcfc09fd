package calendar

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page описывает одну страницу элементов.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Page       int  `json:"page"`      // номер страницы (с 1)
	PageSize   int  `json:"page_size"` // количество элементов на странице
	Total      int  `json:"total"`     // общее количество элементов
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// Paginate возвращает срез items для указанной страницы и метаданные.
// page нумеруется с 1. При некорректных значениях используются дефолты,
// pageSize ограничен MaxPageSize.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	total := len(items)
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pageSize = min(pageSize, MaxPageSize)
	if page <= 0 {
		page = 1
	}

	// Сравниваем до умножения, чтобы (page-1)*pageSize не переполнился.
	start := total
	if page-1 <= total/pageSize {
		start = min((page-1)*pageSize, total)
	}
	end := start + min(pageSize, total-start)

	return Page[T]{
		Items:      items[start:end],
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: (total + pageSize - 1) / pageSize,
		HasNext:    end < total,
		HasPrev:    page > 1,
	}
}

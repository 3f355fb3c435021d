// Package order — приём заказов: разбор текстовых заказов и валидация
// структурированных, плюс таблица именованных локаций.
package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Flotilla/internal/domain"
)

// Ошибки разбора заказов.
var (
	// ErrEmptyOrder — пустой текст заказа.
	ErrEmptyOrder = errors.New("empty order")

	// ErrUnknownKeyword — неизвестное ключевое слово.
	ErrUnknownKeyword = errors.New("unknown order keyword")

	// ErrUnsupportedKeyword — ключевое слово известно, но шаблон job
	// для него ещё не реализован.
	ErrUnsupportedKeyword = errors.New("unsupported order keyword")

	// ErrBadArgCount — число аргументов не соответствует ключевому слову.
	ErrBadArgCount = errors.New("wrong argument count")

	// ErrUnknownLocation — аргумент-локация отсутствует в таблице.
	ErrUnknownLocation = errors.New("unknown location")
)

// keywords — текстовые формы ключевых слов.
var keywords = map[string]domain.OrderKeyword{
	"transport": domain.OrderKeywordTransport,
	"move":      domain.OrderKeywordMove,
	"follow":    domain.OrderKeywordFollow,
}

// ParseText разбирает текстовый заказ.
//
// Формат: "<keyword> <priority> <args...>", например:
//
//	transport high storage assembly
//	move low charging
//
// Возвращённый заказ уже прошёл Validate.
func ParseText(text string) (domain.Order, error) {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return domain.Order{}, ErrEmptyOrder
	}

	keyword, ok := keywords[fields[0]]
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: %q", ErrUnknownKeyword, fields[0])
	}

	o := domain.Order{
		ID:       uuid.New().String(),
		Keyword:  keyword,
		Args:     fields[1:],
		Priority: domain.JobPriorityLow,
	}

	// Второе поле — приоритет, если оно похоже на приоритет.
	// Заказ без приоритета ("move charging") тоже допустим.
	if len(o.Args) > 0 {
		if p, ok := parsePriority(o.Args[0]); ok {
			o.Priority = p
			o.Args = o.Args[1:]
		}
	}

	o.CreatedAt = time.Now()

	if err := Validate(&o); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

// Validate проверяет структурированный заказ и нормализует его.
// Пустой ID заполняется, пустой приоритет превращается в LOW.
func Validate(o *domain.Order) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.Priority == "" {
		o.Priority = domain.JobPriorityLow
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}

	want, known := domain.OrderArgCount(o.Keyword)
	if !known {
		return fmt.Errorf("%w: %q", ErrUnknownKeyword, o.Keyword)
	}

	if o.Keyword == domain.OrderKeywordFollow {
		// Шаблон follow-job пока не собирается, см. tasks.Builder.
		return fmt.Errorf("%w: %q", ErrUnsupportedKeyword, o.Keyword)
	}

	if len(o.Args) != want {
		return fmt.Errorf("%w: %s wants %d, got %d", ErrBadArgCount, o.Keyword, want, len(o.Args))
	}

	for _, arg := range o.Args {
		if _, ok := LookupLocation(arg); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownLocation, arg)
		}
	}

	return nil
}

// parsePriority разбирает текстовый приоритет.
func parsePriority(s string) (domain.JobPriority, bool) {
	switch s {
	case "low":
		return domain.JobPriorityLow, true
	case "medium":
		return domain.JobPriorityMedium, true
	case "high":
		return domain.JobPriorityHigh, true
	case "critical":
		return domain.JobPriorityCritical, true
	default:
		return "", false
	}
}

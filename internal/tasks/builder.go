package tasks

import (
	"fmt"
	"log/slog"

	"github.com/shaiso/Flotilla/internal/domain"
	"github.com/shaiso/Flotilla/internal/order"
)

// Builder собирает task list для job'а из разобранного заказа.
//
// Шаблоны:
//   - TRANSPORT from to → [Move(from), AwaitLoad, Move(to)]
//   - MOVE to           → [Move(to)]
//   - FOLLOW            → пока не поддерживается
type Builder struct {
	Nav    NavSender
	Input  InputSource
	Logger *slog.Logger
}

// Build возвращает tasks заказа в порядке выполнения.
// Аргументы-локации ожидаются уже провалидированными (order.Validate),
// но неизвестная локация всё равно возвращает ошибку.
func (b *Builder) Build(o domain.Order) ([]domain.Task, error) {
	switch o.Keyword {
	case domain.OrderKeywordTransport:
		from, err := b.resolve(o.Args[0])
		if err != nil {
			return nil, err
		}
		to, err := b.resolve(o.Args[1])
		if err != nil {
			return nil, err
		}
		return []domain.Task{
			NewMove(b.Nav, from, b.Logger),
			NewAwaitLoad(b.Input, b.Logger),
			NewMove(b.Nav, to, b.Logger),
		}, nil

	case domain.OrderKeywordMove:
		to, err := b.resolve(o.Args[0])
		if err != nil {
			return nil, err
		}
		return []domain.Task{NewMove(b.Nav, to, b.Logger)}, nil

	default:
		return nil, fmt.Errorf("%w: %q", order.ErrUnsupportedKeyword, o.Keyword)
	}
}

// resolve превращает имя локации в целевую позу.
func (b *Builder) resolve(name string) (domain.Pose, error) {
	loc, ok := order.LookupLocation(name)
	if !ok {
		return domain.Pose{}, fmt.Errorf("%w: %q", order.ErrUnknownLocation, name)
	}
	return loc.Pose, nil
}

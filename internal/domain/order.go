package domain

import "time"

// OrderKeyword — ключевое слово заказа, определяющее шаблон job'а.
type OrderKeyword string

const (
	// OrderKeywordTransport — перевезти груз из одной локации в другую.
	// Аргументы: from_location, to_location.
	OrderKeywordTransport OrderKeyword = "TRANSPORT"

	// OrderKeywordMove — переместить исполнителя в локацию.
	// Аргументы: to_location.
	OrderKeywordMove OrderKeyword = "MOVE"

	// OrderKeywordFollow — следовать за лидером.
	// Аргументы: leader_id. Пока не поддерживается приёмом заказов.
	OrderKeywordFollow OrderKeyword = "FOLLOW"
)

// OrderArgCount возвращает требуемое число аргументов-локаций для
// ключевого слова. Второе значение false для неизвестного слова.
func OrderArgCount(kw OrderKeyword) (int, bool) {
	switch kw {
	case OrderKeywordTransport:
		return 2, true
	case OrderKeywordMove:
		return 1, true
	case OrderKeywordFollow:
		return 1, true
	default:
		return 0, false
	}
}

// Order — разобранный заказ: сырьё для сборки job'а.
//
// Заказ приходит от оператора (HTTP/CLI), от внешней системы через
// очередь orders.incoming или от планировщика повторяющихся заказов.
type Order struct {
	// ID — уникальный идентификатор заказа; он же становится job id.
	ID string `json:"id"`

	// Keyword — ключевое слово заказа.
	Keyword OrderKeyword `json:"keyword"`

	// Priority — приоритет создаваемого job.
	Priority JobPriority `json:"priority"`

	// Args — аргументы-локации в порядке, заданном ключевым словом.
	Args []string `json:"args"`

	// MExID — опционально запрошенный оператором исполнитель.
	MExID string `json:"mex_id,omitempty"`

	// CreatedAt — время приёма заказа.
	CreatedAt time.Time `json:"created_at"`
}

// Location — именованная локация на карте.
type Location struct {
	Name string `json:"name"`
	Pose Pose   `json:"pose"`
}

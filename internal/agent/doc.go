// Package agent реализует бортового агента мобильного исполнителя.
//
// Агент — то, что крутится на самом роботе (здесь — симулятор):
//   - регистрируется в реестре флота при старте;
//   - слушает персональную очередь навигационных целей;
//   - «едет» к цели, публикуя промежуточный и терминальный результат;
//   - отчитывается позой в реестр по прибытии.
//
// Симулятор заменяет навигационный стек реального робота и полезен
// для интеграционных прогонов без железа.
package agent

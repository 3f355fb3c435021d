// Package dispatch реализует распределение jobs по мобильным
// исполнителям.
//
// Компоненты:
//   - Allocator — подбирает свободного исполнителя для первого
//     ожидающего job (одно назначение за проход)
//   - Refiner — доводит назначенный job до выполнения: стартует его
//     и переводит исполнителя в EXECUTING_TASK
//   - Manager — владеет коллекцией jobs, принимает заказы из очереди,
//     реагирует на изменения флота и гоняет циклы аллокации
//
// Авторитетный реестр исполнителей живёт в sentinel; dispatch работает
// через интерфейс Registry и никогда не кеширует снапшот флота дольше
// одного прохода аллокации.
package dispatch

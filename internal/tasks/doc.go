// Package tasks содержит варианты task — закрытое множество единиц
// работы, из которых собираются jobs.
//
// Варианты:
//   - Move      — перемещение исполнителя к целевой позе через
//     навигационного коллаборатора
//   - AwaitLoad — ожидание подтверждения погрузки от оператора/системы
//
// Каждый вариант отчитывается владеющему job'у строго через ReportFunc:
// ровно один терминальный TaskResult за запуск. Новые виды работ
// добавляются новым вариантом, а не расширением существующих.
package tasks

package repo

import "errors"

// Общие ошибки репозиториев реестра флота и расписаний.
var (
	// ErrNotFound — MEx или расписание не найдены в БД.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists — конфликт уникальности (повторная регистрация MEx
	// или дублирующее имя расписания).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidState — операция невозможна в текущем статусе MEx
	// (например, освобождение исполнителя без назначенного job).
	ErrInvalidState = errors.New("invalid state")
)

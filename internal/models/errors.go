package models

import (
	"errors"
	"fmt"
)

// Сентинельные ошибки - для проверки через errors.Is()
var (
	// ErrConflict - операция требует отсутствия активной сессии, но она есть
	ErrConflict = errors.New("активная сессия уже существует")

	// ErrNotFound - операция требует активной/ожидающей записи, но ее нет
	ErrNotFound = errors.New("запись не найдена")

	// ErrAlreadyDecided - повторное решение по уже обработанной заявке
	ErrAlreadyDecided = errors.New("заявка уже обработана")

	// ErrValidation - некорректные входные данные, состояние не изменено
	ErrValidation = errors.New("некорректные данные")
)

// ConflictError - попытка начать сессию при уже активной
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// NotFoundError - нет записи, над которой можно выполнить операцию
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// AlreadyDecidedError - заявка уже одобрена или отклонена
type AlreadyDecidedError struct {
	RequestID uint
	Status    string
}

func (e *AlreadyDecidedError) Error() string {
	return fmt.Sprintf("заявка %d уже обработана (статус: %s)", e.RequestID, e.Status)
}

func (e *AlreadyDecidedError) Unwrap() error {
	return ErrAlreadyDecided
}

// ValidationError - отклонено до какой-либо записи в хранилище
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// StoreError - ошибка уровня хранилища, пробрасывается наверх
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("ошибка хранилища (%s): %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

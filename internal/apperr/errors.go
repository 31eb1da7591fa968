// Package apperr servislerin ortak hata türleri ve handler sınırında HTTP
// hatasına çevrimi.
package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateNumber   = errors.New("duplicate table number")
	ErrEmptyCart         = errors.New("empty cart")
	ErrInvalidItem       = errors.New("invalid order item")
	ErrInvalidInput      = errors.New("invalid input")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrConflict          = errors.New("already exists")
	ErrForbidden         = errors.New("forbidden")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionClosed      = errors.New("session closed")
	ErrUserInactive       = errors.New("user inactive")
)

// StoreError veritabanından gelen ayrıntısız hatayı sarar.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store gorm hatasını çevirir: kayıt yoksa ErrNotFound, gerisi StoreError.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	// servis katmanından gelen domain hataları olduğu gibi geçsin
	for _, domain := range []error{ErrNotFound, ErrDuplicateNumber, ErrEmptyCart, ErrInvalidItem, ErrInvalidInput, ErrIllegalTransition, ErrConflict, ErrForbidden} {
		if errors.Is(err, domain) {
			return err
		}
	}
	return &StoreError{Op: op, Err: err}
}

// ToFiber servis hatasını kullanıcıya gösterilecek mesajlı fiber.Error yapar.
// notFoundMsg customizes the 404 text ("Masa bulunamadı", "Sipariş bulunamadı" ...).
func ToFiber(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	switch {
	case errors.Is(err, ErrNotFound):
		if notFoundMsg == "" {
			notFoundMsg = "Kayıt bulunamadı"
		}
		return fiber.NewError(fiber.StatusNotFound, notFoundMsg)
	case errors.Is(err, ErrDuplicateNumber):
		return fiber.NewError(fiber.StatusConflict, "Bu masa numarası zaten mevcut")
	case errors.Is(err, ErrEmptyCart):
		return fiber.NewError(fiber.StatusBadRequest, "Sepetiniz boş")
	case errors.Is(err, ErrInvalidItem):
		return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş kalemi: "+err.Error())
	case errors.Is(err, ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri: "+err.Error())
	case errors.Is(err, ErrIllegalTransition):
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Geçersiz durum geçişi: "+err.Error())
	case errors.Is(err, ErrConflict):
		return fiber.NewError(fiber.StatusConflict, "Kayıt zaten mevcut: "+err.Error())
	case errors.Is(err, ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, "Bu işlem için yetkiniz yok")
	case errors.Is(err, ErrInvalidCredentials):
		return fiber.NewError(fiber.StatusUnauthorized, "Email veya şifre hatalı")
	case errors.Is(err, ErrUserInactive):
		return fiber.NewError(fiber.StatusForbidden, "Kullanıcı hesabı pasif")
	case errors.Is(err, ErrSessionClosed):
		return fiber.NewError(fiber.StatusUnauthorized, "Oturum sonlandırılmış")
	}
	return fiber.NewError(fiber.StatusInternalServerError, "Beklenmeyen sunucu hatası")
}

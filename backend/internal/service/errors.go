package service

import (
	"errors"
	"fmt"
	"time"
)

// ── workflow errors ──

var (
	ErrValidation                 = errors.New("dados inválidos")
	ErrDuplicateApplication       = errors.New("você já se candidatou a esta vaga")
	ErrScheduleConflict           = errors.New("você já tem um compromisso nesta data")
	ErrInvalidState               = errors.New("operação não permitida no status atual")
	ErrMismatch                   = errors.New("os dados informados não correspondem")
	ErrInvalidCode                = errors.New("código de confirmação inválido")
	ErrCodeExpired                = errors.New("código de confirmação expirado")
	ErrRateLimited                = errors.New("limite diário de alterações de disponibilidade atingido")
	ErrLockedOut                  = errors.New("conta temporariamente bloqueada")
	ErrSuspended                  = errors.New("profissional suspenso")
	ErrConcurrentUpdate           = errors.New("registro alterado por outra operação, tente novamente")
	ErrNotPostingOwner            = errors.New("apenas o responsável pela vaga pode realizar esta operação")
	ErrNotClinicOwner             = errors.New("apenas o responsável pela clínica pode realizar esta operação")
	ErrPostingNotFound            = errors.New("vaga não encontrada")
	ErrApplicationNotFound        = errors.New("candidatura não encontrada")
	ErrProfessionalNotFound       = errors.New("profissional não encontrado")
	ErrClinicNotFound             = errors.New("clínica não encontrada")
	ErrAttendanceNotFound         = errors.New("registro de presença não encontrado")
	ErrBlockNotFound              = errors.New("bloqueio de agenda não encontrado")
	ErrPostingExpired             = fmt.Errorf("%w: vaga expirada", ErrInvalidState)
	ErrAttendanceAlreadyValidated = fmt.Errorf("%w: presença já validada", ErrInvalidState)
)

// LockoutError is returned while a toggle lockout is in force. It unwraps to ErrLockedOut.
type LockoutError struct {
	Until          time.Time
	SupportContact string
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("%s até %s; contate %s", ErrLockedOut.Error(), e.Until.Format("02/01/2006 15:04"), e.SupportContact)
}

// Unwrap lets errors.Is(err, ErrLockedOut) match.
func (e *LockoutError) Unwrap() error { return ErrLockedOut }

// AsLockout extracts the lockout details from err.
func AsLockout(err error) (*LockoutError, bool) {
	var le *LockoutError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

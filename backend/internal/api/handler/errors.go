package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"plantao/backend/internal/dto"
	"plantao/backend/internal/service"
	"plantao/backend/pkg/response"
)

// Business codes
//
//	10xxx  request / auth
//	20xxx  substitution workflow
//	21xxx  attendance
//	22xxx  availability
//	23xxx  calendar / export
const (
	codeBadRequest = 10001

	codeValidation          = 20001
	codeMismatch            = 20002
	codePostingNotFound     = 20101
	codeApplicationNotFound = 20102
	codeProfessionalMissing = 20103
	codeClinicNotFound      = 20104
	codeNotPostingOwner     = 20201
	codeNotClinicOwner      = 20202
	codeDuplicate           = 20301
	codeScheduleConflict    = 20302
	codeConcurrentUpdate    = 20303
	codeInvalidState        = 20400
	codePostingExpired      = 20401
	codeInvalidCode         = 20501
	codeCodeExpired         = 20502

	codeAttendanceNotFound = 21001
	codeAlreadyValidated   = 21002

	codeRateLimited = 22001
	codeLockedOut   = 22002
	codeSuspended   = 22003

	codeBlockNotFound = 23001
	codeNoRecords     = 23101
)

// handleServiceError maps the workflow error taxonomy to HTTP.
// More specific sentinels come before the ones they wrap.
func handleServiceError(c *gin.Context, err error) {
	if lockout, ok := service.AsLockout(err); ok {
		response.ErrorWithData(c, http.StatusLocked, codeLockedOut, service.ErrLockedOut.Error(), dto.LockoutDetails{
			LockedUntil:    dto.FormatTime(&lockout.Until),
			SupportContact: lockout.SupportContact,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrValidation):
		response.ErrorWithDetails(c, http.StatusBadRequest, codeValidation, service.ErrValidation.Error(), err.Error())
	case errors.Is(err, service.ErrMismatch):
		response.BadRequest(c, codeMismatch, service.ErrMismatch.Error())

	case errors.Is(err, service.ErrPostingNotFound):
		response.NotFound(c, codePostingNotFound, service.ErrPostingNotFound.Error())
	case errors.Is(err, service.ErrApplicationNotFound):
		response.NotFound(c, codeApplicationNotFound, service.ErrApplicationNotFound.Error())
	case errors.Is(err, service.ErrProfessionalNotFound):
		response.NotFound(c, codeProfessionalMissing, service.ErrProfessionalNotFound.Error())
	case errors.Is(err, service.ErrClinicNotFound):
		response.NotFound(c, codeClinicNotFound, service.ErrClinicNotFound.Error())
	case errors.Is(err, service.ErrAttendanceNotFound):
		response.NotFound(c, codeAttendanceNotFound, service.ErrAttendanceNotFound.Error())
	case errors.Is(err, service.ErrBlockNotFound):
		response.NotFound(c, codeBlockNotFound, service.ErrBlockNotFound.Error())
	case errors.Is(err, service.ErrExportNoRecords):
		response.NotFound(c, codeNoRecords, service.ErrExportNoRecords.Error())

	case errors.Is(err, service.ErrNotPostingOwner):
		response.Forbidden(c, codeNotPostingOwner, service.ErrNotPostingOwner.Error())
	case errors.Is(err, service.ErrNotClinicOwner):
		response.Forbidden(c, codeNotClinicOwner, service.ErrNotClinicOwner.Error())
	case errors.Is(err, service.ErrSuspended):
		response.Forbidden(c, codeSuspended, service.ErrSuspended.Error())
	case errors.Is(err, service.ErrLockedOut):
		response.Error(c, http.StatusLocked, codeLockedOut, service.ErrLockedOut.Error())

	case errors.Is(err, service.ErrDuplicateApplication):
		response.Conflict(c, codeDuplicate, service.ErrDuplicateApplication.Error())
	case errors.Is(err, service.ErrScheduleConflict):
		response.Conflict(c, codeScheduleConflict, service.ErrScheduleConflict.Error())
	case errors.Is(err, service.ErrConcurrentUpdate):
		response.Conflict(c, codeConcurrentUpdate, service.ErrConcurrentUpdate.Error())

	case errors.Is(err, service.ErrPostingExpired):
		response.Gone(c, codePostingExpired, "vaga expirada")
	case errors.Is(err, service.ErrAttendanceAlreadyValidated):
		response.Conflict(c, codeAlreadyValidated, "presença já validada")
	case errors.Is(err, service.ErrInvalidState):
		response.ErrorWithDetails(c, http.StatusConflict, codeInvalidState, service.ErrInvalidState.Error(), err.Error())

	case errors.Is(err, service.ErrInvalidCode):
		response.BadRequest(c, codeInvalidCode, service.ErrInvalidCode.Error())
	case errors.Is(err, service.ErrCodeExpired):
		response.Gone(c, codeCodeExpired, service.ErrCodeExpired.Error())
	case errors.Is(err, service.ErrRateLimited):
		response.TooManyRequests(c, codeRateLimited, service.ErrRateLimited.Error())

	default:
		response.InternalError(c)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"plantao/backend/config"
	"plantao/backend/internal/dto"
	"plantao/backend/internal/model"
	"plantao/backend/internal/notify"
	"plantao/backend/internal/repository"
	pkgerrors "plantao/backend/pkg/errors"
)

// PostingService substitution lifecycle: create → publish → apply → choose → confirm
type PostingService interface {
	Create(ctx context.Context, req *dto.CreatePostingRequest, callerID string) (*dto.PostingResponse, error)
	Publish(ctx context.Context, postingID, callerID string) (*dto.PostingResponse, error)
	Get(ctx context.Context, postingID string) (*dto.PostingResponse, error)
	List(ctx context.Context, q *dto.ListPostingsQuery, callerID string) ([]dto.PostingResponse, int64, error)

	Apply(ctx context.Context, postingID, professionalID string, req *dto.ApplyRequest) (*dto.ApplicationResponse, error)
	Withdraw(ctx context.Context, applicationID, callerID string) error
	ListApplications(ctx context.Context, postingID, callerID string) ([]dto.ApplicationResponse, error)
	ListMyApplications(ctx context.Context, professionalID string) ([]dto.ApplicationResponse, error)

	Choose(ctx context.Context, postingID, applicationID, callerID string) (*dto.PostingResponse, error)
	Confirm(ctx context.Context, postingID string, req *dto.ConfirmRequest) (*dto.ConfirmResult, error)
	// ConfirmByReply handles "APROVAR <código>" / "RECUSAR <código> [motivo]" from the clinic's WhatsApp.
	ConfirmByReply(ctx context.Context, req *dto.ReplyWebhookRequest) (*dto.ConfirmResult, error)

	Cancel(ctx context.Context, postingID, reason, callerID string) (*dto.PostingResponse, error)
	// RecordView never fails the caller.
	RecordView(ctx context.Context, postingID string)
}

type postingService struct {
	repo      *repository.Repository
	cfg       *config.SubstitutionConfig
	conflicts ConflictChecker
	codes     CodeIssuer
	notifier  Notifier
	validate  *validator.Validate
	loc       *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewPostingService creates a PostingService
func NewPostingService(
	cfg *config.SubstitutionConfig,
	repo *repository.Repository,
	notifier Notifier,
	logger *zap.Logger,
) PostingService {
	loc := businessLocation(cfg, logger)
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &postingService{
		repo:      repo,
		cfg:       cfg,
		conflicts: NewConflictChecker(repo, loc, logger),
		codes:     NewCodeIssuer(),
		notifier:  notifier,
		validate:  validator.New(),
		loc:       loc,
		logger:    logger,
		now:       time.Now,
	}
}

// ════════════════════════════════════════════════════════════
// Create
// ════════════════════════════════════════════════════════════

func (s *postingService) Create(ctx context.Context, req *dto.CreatePostingRequest, callerID string) (*dto.PostingResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return nil, validationError("campo %s inválido (%s)", ve[0].Field(), ve[0].Tag())
		}
		return nil, validationError("%v", err)
	}

	if !req.TermsAccepted {
		return nil, validationError("é preciso aceitar os termos da substituição")
	}

	posting := &model.Posting{
		PostingID:          uuid.NewString(),
		CreatorType:        model.CreatorType(req.CreatorType),
		ClinicID:           req.ClinicID,
		Reason:             strings.TrimSpace(req.Reason),
		Specialty:          strings.TrimSpace(req.Specialty),
		TermsAccepted:      true,
		CompensationModel:  model.CompensationModel(req.CompensationModel),
		PaymentMethod:      req.PaymentMethod,
		Payer:              req.Payer,
		ScheduleMode:       model.ScheduleMode(req.ScheduleMode),
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		ExpectedProcedures: req.ExpectedProcedures,
		Status:             model.PostingDraft,
	}
	posting.CreatedBy = &callerID
	posting.UpdatedBy = &callerID
	posting.Version = 1

	if posting.CreatorType == model.CreatorProfessional {
		// a professional opens postings only for their own absence
		if req.CreatorProfessionalID != "" && req.CreatorProfessionalID != callerID {
			return nil, ErrMismatch
		}
		posting.CreatorProfessionalID = &callerID
	}

	// compensation
	switch posting.CompensationModel {
	case model.CompensationDailyRate:
		if req.DailyRate == nil {
			return nil, validationError("informe o valor da diária")
		}
		posting.DailyRate = req.DailyRate
	case model.CompensationPercentage:
		if len(req.Procedures) == 0 {
			return nil, validationError("informe ao menos um procedimento com percentual")
		}
		for _, item := range req.Procedures {
			posting.Procedures = append(posting.Procedures, model.ProcedureShare{
				Procedure:  strings.TrimSpace(item.Procedure),
				Percentage: item.Percentage,
			})
		}
	}

	// date group
	if err := s.fillDateGroup(posting, req); err != nil {
		return nil, err
	}

	// clinic reference
	clinic, err := s.repo.Clinic.GetByID(ctx, req.ClinicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClinicNotFound
		}
		s.logger.Error("falha ao consultar clínica", zap.Error(err))
		return nil, err
	}
	if posting.CreatorType == model.CreatorClinic && clinic.OwnerID != callerID {
		return nil, ErrNotClinicOwner
	}

	if err := s.repo.Posting.Create(ctx, posting); err != nil {
		s.logger.Error("falha ao criar vaga", zap.Error(err))
		return nil, err
	}
	posting.Clinic = clinic

	s.logger.Info("vaga criada",
		zap.String("posting_id", posting.PostingID),
		zap.String("schedule_mode", string(posting.ScheduleMode)),
		zap.String("created_by", callerID),
	)
	return s.toPostingResponse(posting), nil
}

// fillDateGroup populates exactly the date group the scheduling mode names.
func (s *postingService) fillDateGroup(p *model.Posting, req *dto.CreatePostingRequest) error {
	hasSpecific := req.SpecificDate != ""
	hasRange := req.PeriodStart != "" || req.PeriodEnd != ""

	switch p.ScheduleMode {
	case model.ScheduleImmediate:
		if req.ImmediateAt == nil || hasSpecific || hasRange {
			return validationError("vaga imediata exige somente data e hora de início")
		}
		if strings.TrimSpace(req.AttendanceType) == "" {
			return validationError("vaga imediata exige o tipo de atendimento")
		}
		at := req.ImmediateAt.In(s.loc)
		p.ImmediateAt = &at
		p.AttendanceType = strings.TrimSpace(req.AttendanceType)
		p.ExpectedPatients = req.ExpectedPatients

	case model.ScheduleSpecificDate:
		if !hasSpecific || req.ImmediateAt != nil || hasRange {
			return validationError("vaga com data específica exige somente a data")
		}
		day, err := parseDay(req.SpecificDate, s.loc)
		if err != nil {
			return err
		}
		p.SpecificDate = &day

	case model.ScheduleDateRange:
		if req.PeriodStart == "" || req.PeriodEnd == "" || req.ImmediateAt != nil || hasSpecific {
			return validationError("vaga por período exige somente início e fim")
		}
		start, err := parseDay(req.PeriodStart, s.loc)
		if err != nil {
			return err
		}
		end, err := parseDay(req.PeriodEnd, s.loc)
		if err != nil {
			return err
		}
		if end.Before(start) {
			return validationError("fim do período anterior ao início")
		}
		p.PeriodStart = &start
		p.PeriodEnd = &end
	}

	if (p.StartTime == "") != (p.EndTime == "") {
		return validationError("informe horário de início e de término")
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// Publish
// ════════════════════════════════════════════════════════════

func (s *postingService) Publish(ctx context.Context, postingID, callerID string) (*dto.PostingResponse, error) {
	posting, err := s.loadPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}
	if posting.OwnerID() != callerID {
		return nil, ErrNotPostingOwner
	}
	if err := transition(posting, model.PostingOpen); err != nil {
		return nil, err
	}

	now := s.now()
	expires := now.Add(s.expiryFor(posting.ScheduleMode))
	posting.PublishedAt = &now
	posting.ExpiresAt = &expires
	posting.UpdatedBy = &callerID

	if err := s.repo.Posting.Update(ctx, posting); err != nil {
		return nil, s.writeErr("publicar vaga", err)
	}

	s.logger.Info("vaga publicada",
		zap.String("posting_id", posting.PostingID),
		zap.Time("expires_at", expires),
	)

	s.fanOut(ctx, posting)
	return s.toPostingResponse(posting), nil
}

// expiryFor IMMEDIATE 48h, SPECIFIC_DATE 7d, DATE_RANGE 14d, anything else 7d by default.
func (s *postingService) expiryFor(mode model.ScheduleMode) time.Duration {
	switch mode {
	case model.ScheduleImmediate:
		return s.cfg.ExpiryImmediate
	case model.ScheduleSpecificDate:
		return s.cfg.ExpirySpecificDate
	case model.ScheduleDateRange:
		return s.cfg.ExpiryDateRange
	}
	return s.cfg.ExpiryDefault
}

// fanOut tells available professionals about a new posting.
func (s *postingService) fanOut(ctx context.Context, posting *model.Posting) {
	pros, err := s.repo.Professional.ListAvailable(ctx, posting.Specialty)
	if err != nil {
		s.logger.Warn("falha ao listar profissionais disponíveis", zap.String("posting_id", posting.PostingID), zap.Error(err))
		return
	}

	subject := "Nova substituição disponível"
	body := fmt.Sprintf("Nova vaga de substituição%s. Confira os detalhes e candidate-se.", specialtySuffix(posting.Specialty))

	msgs := make([]notify.Message, 0, len(pros))
	for _, pro := range pros {
		if pro.ProfessionalID == posting.OwnerID() {
			continue
		}
		if posting.CreatorProfessionalID != nil && pro.ProfessionalID == *posting.CreatorProfessionalID {
			continue
		}
		msgs = append(msgs, pushMessage(pro.ProfessionalID, notify.EventPostingPublished, subject, body, posting.PostingID))
	}
	publishAll(ctx, s.notifier, s.logger, msgs...)
}

// ════════════════════════════════════════════════════════════
// Read models
// ════════════════════════════════════════════════════════════

func (s *postingService) Get(ctx context.Context, postingID string) (*dto.PostingResponse, error) {
	posting, err := s.loadPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}
	return s.toPostingResponse(posting), nil
}

func (s *postingService) List(ctx context.Context, q *dto.ListPostingsQuery, callerID string) ([]dto.PostingResponse, int64, error) {
	filter := repository.PostingFilter{
		ClinicID:  q.ClinicID,
		Specialty: q.Specialty,
	}
	if q.Mine {
		filter.CreatedBy = callerID
	}
	for _, raw := range strings.Split(q.Status, ",") {
		raw = strings.TrimSpace(strings.ToUpper(raw))
		if raw == "" {
			continue
		}
		status := model.PostingStatus(raw)
		if !status.Valid() {
			return nil, 0, validationError("status desconhecido %q", raw)
		}
		filter.Status = append(filter.Status, status)
	}

	postings, total, err := s.repo.Posting.List(ctx, filter, q.GetOffset(), q.GetPageSize())
	if err != nil {
		s.logger.Error("falha ao listar vagas", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.PostingResponse, 0, len(postings))
	for i := range postings {
		list = append(list, *s.toPostingResponse(&postings[i]))
	}
	return list, total, nil
}

func (s *postingService) ListApplications(ctx context.Context, postingID, callerID string) ([]dto.ApplicationResponse, error) {
	posting, err := s.loadPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}
	if posting.OwnerID() != callerID {
		return nil, ErrNotPostingOwner
	}

	apps, err := s.repo.Application.ListByPosting(ctx, postingID)
	if err != nil {
		s.logger.Error("falha ao listar candidaturas", zap.Error(err))
		return nil, err
	}
	list := make([]dto.ApplicationResponse, 0, len(apps))
	for i := range apps {
		list = append(list, toApplicationResponse(&apps[i]))
	}
	return list, nil
}

func (s *postingService) ListMyApplications(ctx context.Context, professionalID string) ([]dto.ApplicationResponse, error) {
	apps, err := s.repo.Application.ListByProfessional(ctx, professionalID)
	if err != nil {
		s.logger.Error("falha ao listar candidaturas do profissional", zap.Error(err))
		return nil, err
	}
	list := make([]dto.ApplicationResponse, 0, len(apps))
	for i := range apps {
		list = append(list, toApplicationResponse(&apps[i]))
	}
	return list, nil
}

func (s *postingService) RecordView(ctx context.Context, postingID string) {
	if err := s.repo.Posting.IncrementViews(ctx, postingID); err != nil {
		s.logger.Warn("falha ao registrar visualização", zap.String("posting_id", postingID), zap.Error(err))
	}
}

// ════════════════════════════════════════════════════════════
// Apply / Withdraw
// ════════════════════════════════════════════════════════════

func (s *postingService) Apply(ctx context.Context, postingID, professionalID string, req *dto.ApplyRequest) (*dto.ApplicationResponse, error) {
	posting, err := s.loadPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}

	pro, err := s.loadProfessional(ctx, professionalID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if pro.SuspensionActive(now) {
		return nil, ErrSuspended
	}
	if pro.LockedOut(now) {
		return nil, &LockoutError{Until: *pro.LockoutUntil, SupportContact: s.cfg.SupportContact}
	}

	if !posting.Status.AcceptsApplications() {
		return nil, fmt.Errorf("%w: vaga em %s", ErrInvalidState, posting.Status)
	}
	if posting.Expired(now) {
		return nil, ErrPostingExpired
	}
	if posting.OwnerID() == professionalID ||
		(posting.CreatorProfessionalID != nil && *posting.CreatorProfessionalID == professionalID) {
		return nil, validationError("não é possível candidatar-se à própria vaga")
	}

	// duplicate
	existing, err := s.repo.Application.FindByPostingAndProfessional(ctx, postingID, professionalID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("falha ao consultar candidatura", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateApplication
	}

	// schedule conflict
	conflict, err := s.conflicts.HasConflict(ctx, professionalID, posting)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, ErrScheduleConflict
	}

	app := &model.Application{
		ApplicationID:  uuid.NewString(),
		PostingID:      postingID,
		ProfessionalID: professionalID,
		Message:        strings.TrimSpace(req.Message),
		Status:         model.ApplicationPending,
	}
	app.CreatedBy = &professionalID
	app.UpdatedBy = &professionalID

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Application.Create(ctx, app); err != nil {
			return err
		}
		if err := tx.Posting.IncrementCandidates(ctx, postingID); err != nil {
			return err
		}
		return tx.Posting.MoveToSelection(ctx, postingID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateApplication
		}
		s.logger.Error("falha ao registrar candidatura", zap.Error(err))
		return nil, err
	}
	app.Professional = pro

	s.logger.Info("candidatura registrada",
		zap.String("posting_id", postingID),
		zap.String("professional_id", professionalID),
	)

	publishAll(ctx, s.notifier, s.logger, pushMessage(
		posting.OwnerID(), notify.EventApplicationReceived,
		"Nova candidatura",
		fmt.Sprintf("%s se candidatou à sua vaga de substituição.", pro.Name),
		postingID,
	))
	return ptr(toApplicationResponse(app)), nil
}

func (s *postingService) Withdraw(ctx context.Context, applicationID, callerID string) error {
	app, err := s.repo.Application.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrApplicationNotFound
		}
		s.logger.Error("falha ao consultar candidatura", zap.Error(err))
		return err
	}
	if app.ProfessionalID != callerID {
		return ErrMismatch
	}
	if app.Status != model.ApplicationPending {
		return fmt.Errorf("%w: candidatura %s", ErrInvalidState, app.Status)
	}
	posting, err := s.loadPosting(ctx, app.PostingID)
	if err != nil {
		return err
	}
	if posting.Status.IsTerminal() {
		return fmt.Errorf("%w: vaga %s", ErrInvalidState, posting.Status)
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Application.Delete(ctx, applicationID); err != nil {
			return err
		}
		return tx.Posting.DecrementCandidates(ctx, app.PostingID)
	})
	if err != nil {
		s.logger.Error("falha ao retirar candidatura", zap.Error(err))
		return err
	}

	s.logger.Info("candidatura retirada",
		zap.String("application_id", applicationID),
		zap.String("posting_id", app.PostingID),
	)

	publishAll(ctx, s.notifier, s.logger, pushMessage(
		posting.OwnerID(), notify.EventApplicationWithdrawn,
		"Candidatura retirada",
		"Um candidato retirou a candidatura da sua vaga.",
		posting.PostingID,
	))
	return nil
}

// ════════════════════════════════════════════════════════════
// Choose
// ════════════════════════════════════════════════════════════

func (s *postingService) Choose(ctx context.Context, postingID, applicationID, callerID string) (*dto.PostingResponse, error) {
	posting, err := s.loadPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}
	if posting.OwnerID() != callerID {
		return nil, ErrNotPostingOwner
	}

	app, err := s.repo.Application.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		s.logger.Error("falha ao consultar candidatura", zap.Error(err))
		return nil, err
	}
	if app.PostingID != posting.PostingID {
		return nil, ErrMismatch
	}
	if app.Status != model.ApplicationPending {
		return nil, fmt.Errorf("%w: candidatura %s", ErrInvalidState, app.Status)
	}

	// OPEN only survives here if the selection move was lost; the table requires passing through IN_SELECTION.
	if posting.Status == model.PostingOpen {
		if err := transition(posting, model.PostingInSelection); err != nil {
			return nil, err
		}
	}
	if err := transition(posting, model.PostingAwaitingConfirmation); err != nil {
		return nil, err
	}

	pro := app.Professional
	if pro == nil {
		if pro, err = s.loadProfessional(ctx, app.ProfessionalID); err != nil {
			return nil, err
		}
	}
	now := s.now()
	if pro.SuspensionActive(now) {
		return nil, ErrSuspended
	}

	// candidates about to be rejected, for notification
	others, err := s.repo.Application.ListByPosting(ctx, postingID)
	if err != nil {
		s.logger.Error("falha ao listar candidaturas", zap.Error(err))
		return nil, err
	}

	code, err := s.codes.Issue()
	if err != nil {
		s.logger.Error("falha ao gerar código de confirmação", zap.Error(err))
		return nil, err
	}
	hash, err := hashCode(code, s.cfg.CodeHashCost)
	if err != nil {
		s.logger.Error("falha ao proteger código de confirmação", zap.Error(err))
		return nil, err
	}

	codeExpires := now.Add(s.cfg.CodeTTL)
	posting.ChosenProfessionalID = &app.ProfessionalID
	posting.ChosenAt = &now
	posting.ChosenBy = &callerID
	posting.ConfirmationCodeHash = hash
	posting.ConfirmationSentAt = &now
	posting.ConfirmationChannel = model.ConfirmationChannelWhatsApp
	posting.ConfirmationExpiresAt = &codeExpires
	posting.ConfirmationReceivedAt = nil
	posting.ConfirmationOutcome = ""
	posting.ConfirmationAttempts = 0
	posting.UpdatedBy = &callerID

	var rejected int64
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Posting.Update(ctx, posting); err != nil {
			return err
		}
		if err := tx.Application.UpdateStatus(ctx, applicationID, model.ApplicationChosen, false); err != nil {
			return err
		}
		n, err := tx.Application.RejectPendingExcept(ctx, postingID, applicationID)
		rejected = n
		return err
	})
	if err != nil {
		return nil, s.writeErr("escolher candidato", err)
	}

	s.logger.Info("candidato escolhido",
		zap.String("posting_id", postingID),
		zap.String("professional_id", app.ProfessionalID),
		zap.Int64("rejected", rejected),
	)

	// offer to the clinic's responsible party
	clinic := posting.Clinic
	if clinic == nil {
		if clinic, err = s.repo.Clinic.GetByID(ctx, posting.ClinicID); err != nil {
			s.logger.Warn("clínica não encontrada para envio do código", zap.String("posting_id", postingID), zap.Error(err))
		}
	}
	msgs := make([]notify.Message, 0, len(others)+1)
	if clinic != nil {
		body := RenderOffer(OfferView{
			Posting:      posting,
			Clinic:       clinic,
			Professional: pro,
			Code:         code,
			DeepLink:     DeepLink(s.cfg.DeepLinkBaseURL, postingID),
			Now:          now,
			Location:     s.loc,
		})
		offer := whatsAppMessage(clinic.ResponsiblePhone, notify.EventConfirmationRequested,
			"Confirmação de substituição", body, postingID)
		offer.Sensitive = true // carries the plaintext code
		msgs = append(msgs, offer)
	}
	for _, other := range others {
		if other.ApplicationID == applicationID || other.Status != model.ApplicationPending {
			continue
		}
		msgs = append(msgs, pushMessage(other.ProfessionalID, notify.EventApplicationRejected,
			"Candidatura não selecionada",
			"Outro profissional foi escolhido para esta substituição.",
			postingID,
		))
	}
	publishAll(ctx, s.notifier, s.logger, msgs...)

	return s.toPostingResponse(posting), nil
}

// ════════════════════════════════════════════════════════════
// Confirm
// ════════════════════════════════════════════════════════════

func (s *postingService) Confirm(ctx context.Context, postingID string, req *dto.ConfirmRequest) (*dto.ConfirmResult, error) {
	posting, err := s.loadPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}
	approved := req.Approved != nil && *req.Approved
	return s.confirm(ctx, posting, req.Code, approved, req.Reason)
}

func (s *postingService) ConfirmByReply(ctx context.Context, req *dto.ReplyWebhookRequest) (*dto.ConfirmResult, error) {
	cmd, err := ParseReply(req.Text)
	if err != nil {
		return nil, err
	}

	clinics, err := s.repo.Clinic.ListByResponsiblePhone(ctx, normalizePhone(req.From))
	if err != nil {
		s.logger.Error("falha ao consultar clínicas pelo telefone", zap.Error(err))
		return nil, err
	}
	if len(clinics) == 0 {
		return nil, ErrClinicNotFound
	}
	ids := make([]string, 0, len(clinics))
	for _, c := range clinics {
		ids = append(ids, c.ClinicID)
	}

	awaiting, err := s.repo.Posting.ListByClinicsAndStatus(ctx, ids, model.PostingAwaitingConfirmation)
	if err != nil {
		s.logger.Error("falha ao listar vagas aguardando confirmação", zap.Error(err))
		return nil, err
	}
	for i := range awaiting {
		if verifyCode(awaiting[i].ConfirmationCodeHash, cmd.Code) {
			return s.confirm(ctx, &awaiting[i], cmd.Code, cmd.Approved, cmd.Reason)
		}
	}
	return nil, ErrInvalidCode
}

// confirm checks the code before anything else so a wrong code only bumps the
// attempt counter. The code is consumed by the same write that applies the answer.
func (s *postingService) confirm(ctx context.Context, posting *model.Posting, code string, approved bool, reason string) (*dto.ConfirmResult, error) {
	if s.codeLocked(posting) {
		return nil, ErrCodeExpired
	}
	if !verifyCode(posting.ConfirmationCodeHash, code) {
		s.recordFailedCode(ctx, posting)
		return nil, ErrInvalidCode
	}
	now := s.now()
	if posting.ConfirmationExpiresAt != nil && now.After(*posting.ConfirmationExpiresAt) {
		return nil, ErrCodeExpired
	}
	if posting.Status != model.PostingAwaitingConfirmation || posting.ChosenProfessionalID == nil {
		return nil, fmt.Errorf("%w: vaga em %s", ErrInvalidState, posting.Status)
	}

	chosenID := *posting.ChosenProfessionalID
	posting.ConfirmationCodeHash = ""
	posting.ConfirmationReceivedAt = &now
	posting.UpdatedBy = model.StrPtr(model.SystemActor)

	if approved {
		return s.approve(ctx, posting, chosenID)
	}
	return s.reject(ctx, posting, chosenID, reason, now)
}

// codeLocked reports whether too many wrong codes voided the pending one.
func (s *postingService) codeLocked(p *model.Posting) bool {
	return p.Status == model.PostingAwaitingConfirmation &&
		s.cfg.MaxCodeAttempts > 0 && p.ConfirmationAttempts >= s.cfg.MaxCodeAttempts
}

func (s *postingService) recordFailedCode(ctx context.Context, posting *model.Posting) {
	if posting.Status != model.PostingAwaitingConfirmation || posting.ConfirmationCodeHash == "" {
		return
	}
	attempts, err := s.repo.Posting.RecordFailedCode(ctx, posting.PostingID, s.cfg.MaxCodeAttempts)
	if err != nil {
		s.logger.Error("falha ao registrar código incorreto", zap.String("posting_id", posting.PostingID), zap.Error(err))
		return
	}
	if attempts < s.cfg.MaxCodeAttempts {
		return
	}
	s.logger.Warn("código de confirmação bloqueado por tentativas incorretas",
		zap.String("posting_id", posting.PostingID),
		zap.Int("attempts", attempts),
	)
	if attempts == s.cfg.MaxCodeAttempts {
		publishAll(ctx, s.notifier, s.logger, pushMessage(
			posting.OwnerID(), notify.EventConfirmationLocked,
			"Código de confirmação bloqueado",
			"O código enviado à clínica foi invalidado após tentativas incorretas. Cancele a vaga e crie uma nova.",
			posting.PostingID,
		))
	}
}

func (s *postingService) approve(ctx context.Context, posting *model.Posting, chosenID string) (*dto.ConfirmResult, error) {
	if err := transition(posting, model.PostingConfirmed); err != nil {
		return nil, err
	}
	posting.ConfirmationOutcome = model.OutcomeApproved

	var block *model.ScheduleBlock
	if start, end, ok := posting.DateSpan(s.loc); ok {
		block = &model.ScheduleBlock{
			BlockID:        uuid.NewString(),
			ProfessionalID: chosenID,
			PostingID:      &posting.PostingID,
			Type:           model.BlockSubstitution,
			StartDate:      start,
			EndDate:        end,
			StartTime:      posting.StartTime,
			EndTime:        posting.EndTime,
			Active:         true,
		}
		block.CreatedBy = model.StrPtr(model.SystemActor)
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Posting.Update(ctx, posting); err != nil {
			return err
		}
		if block == nil {
			return nil
		}
		return tx.ScheduleBlock.Create(ctx, block)
	})
	if err != nil {
		return nil, s.writeErr("confirmar substituição", err)
	}

	s.logger.Info("substituição confirmada",
		zap.String("posting_id", posting.PostingID),
		zap.String("professional_id", chosenID),
	)

	publishAll(ctx, s.notifier, s.logger,
		pushMessage(chosenID, notify.EventSubstitutionConfirmed,
			"Substituição confirmada",
			"A clínica confirmou sua substituição. O compromisso foi adicionado à sua agenda.",
			posting.PostingID),
		pushMessage(posting.OwnerID(), notify.EventSubstitutionConfirmed,
			"Substituição confirmada",
			"O responsável pela clínica aprovou o profissional escolhido.",
			posting.PostingID),
	)
	return &dto.ConfirmResult{
		PostingID: posting.PostingID,
		Status:    string(posting.Status),
		Outcome:   posting.ConfirmationOutcome,
	}, nil
}

func (s *postingService) reject(ctx context.Context, posting *model.Posting, chosenID, reason string, now time.Time) (*dto.ConfirmResult, error) {
	if err := transition(posting, model.PostingInSelection); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	posting.ConfirmationOutcome = model.OutcomeRejectedByClinic
	posting.RejectionReason = reason
	posting.AppendObservation(now, "Candidato recusado pela clínica: "+orDefault(reason, "sem motivo informado"))
	posting.ClearChoice()

	chosen, err := s.repo.Application.FindByPostingAndProfessional(ctx, posting.PostingID, chosenID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("falha ao consultar candidatura escolhida", zap.Error(err))
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Posting.Update(ctx, posting); err != nil {
			return err
		}
		if chosen == nil {
			return nil
		}
		return tx.Application.UpdateStatus(ctx, chosen.ApplicationID, model.ApplicationRejected, false)
	})
	if err != nil {
		return nil, s.writeErr("recusar candidato", err)
	}

	s.logger.Info("candidato recusado pela clínica",
		zap.String("posting_id", posting.PostingID),
		zap.String("professional_id", chosenID),
	)

	publishAll(ctx, s.notifier, s.logger,
		pushMessage(chosenID, notify.EventSubstitutionRejected,
			"Substituição não confirmada",
			"A clínica não confirmou sua participação nesta substituição.",
			posting.PostingID),
		pushMessage(posting.OwnerID(), notify.EventSubstitutionRejected,
			"Candidato recusado",
			"O responsável pela clínica recusou o candidato. Escolha outro profissional.",
			posting.PostingID),
	)
	return &dto.ConfirmResult{
		PostingID: posting.PostingID,
		Status:    string(posting.Status),
		Outcome:   posting.ConfirmationOutcome,
	}, nil
}

// ════════════════════════════════════════════════════════════
// Cancel
// ════════════════════════════════════════════════════════════

func (s *postingService) Cancel(ctx context.Context, postingID, reason, callerID string) (*dto.PostingResponse, error) {
	posting, err := s.loadPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}
	if posting.OwnerID() != callerID {
		return nil, ErrNotPostingOwner
	}
	if err := transition(posting, model.PostingCancelled); err != nil {
		return nil, err
	}

	var chosen *model.Application
	if posting.ChosenProfessionalID != nil {
		chosen, err = s.repo.Application.FindByPostingAndProfessional(ctx, postingID, *posting.ChosenProfessionalID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("falha ao consultar candidatura escolhida", zap.Error(err))
			return nil, err
		}
	}

	now := s.now()
	posting.AppendObservation(now, "Cancelada: "+strings.TrimSpace(reason))
	posting.CancelledAt = &now
	posting.ClearChoice()
	posting.UpdatedBy = &callerID

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Posting.Update(ctx, posting); err != nil {
			return err
		}
		if chosen == nil || chosen.Status != model.ApplicationChosen {
			return nil
		}
		return tx.Application.UpdateStatus(ctx, chosen.ApplicationID, model.ApplicationRejected, false)
	})
	if err != nil {
		return nil, s.writeErr("cancelar vaga", err)
	}
	s.logger.Info("vaga cancelada", zap.String("posting_id", postingID), zap.String("by", callerID))

	s.notifyCandidates(ctx, posting, notify.EventPostingCancelled,
		"Vaga cancelada", "A vaga de substituição à qual você se candidatou foi cancelada.")
	return s.toPostingResponse(posting), nil
}

func (s *postingService) notifyCandidates(ctx context.Context, posting *model.Posting, event, subject, body string) {
	apps, err := s.repo.Application.ListByPosting(ctx, posting.PostingID)
	if err != nil {
		s.logger.Warn("falha ao listar candidatos para notificação", zap.String("posting_id", posting.PostingID), zap.Error(err))
		return
	}
	msgs := make([]notify.Message, 0, len(apps))
	for _, app := range apps {
		msgs = append(msgs, pushMessage(app.ProfessionalID, event, subject, body, posting.PostingID))
	}
	publishAll(ctx, s.notifier, s.logger, msgs...)
}

// ── helpers ──

func (s *postingService) loadPosting(ctx context.Context, id string) (*model.Posting, error) {
	posting, err := s.repo.Posting.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostingNotFound
		}
		s.logger.Error("falha ao consultar vaga", zap.String("posting_id", id), zap.Error(err))
		return nil, err
	}
	return posting, nil
}

func (s *postingService) loadProfessional(ctx context.Context, id string) (*model.Professional, error) {
	pro, err := s.repo.Professional.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfessionalNotFound
		}
		s.logger.Error("falha ao consultar profissional", zap.String("professional_id", id), zap.Error(err))
		return nil, err
	}
	return pro, nil
}

// writeErr maps a lost optimistic lock to ErrConcurrentUpdate and logs anything else.
func (s *postingService) writeErr(op string, err error) error {
	if pkgerrors.IsOptimisticLock(err) {
		return ErrConcurrentUpdate
	}
	s.logger.Error("falha ao "+op, zap.Error(err))
	return err
}

func (s *postingService) toPostingResponse(p *model.Posting) *dto.PostingResponse {
	resp := &dto.PostingResponse{
		ID:                  p.PostingID,
		CreatorType:         string(p.CreatorType),
		ClinicID:            p.ClinicID,
		Reason:              p.Reason,
		Specialty:           p.Specialty,
		CompensationModel:   string(p.CompensationModel),
		DailyRate:           p.DailyRate,
		PaymentMethod:       p.PaymentMethod,
		Payer:               p.Payer,
		ScheduleMode:        string(p.ScheduleMode),
		ImmediateAt:         dto.FormatTime(p.ImmediateAt),
		SpecificDate:        dto.FormatDate(p.SpecificDate),
		PeriodStart:         dto.FormatDate(p.PeriodStart),
		PeriodEnd:           dto.FormatDate(p.PeriodEnd),
		StartTime:           p.StartTime,
		EndTime:             p.EndTime,
		AttendanceType:      p.AttendanceType,
		ExpectedPatients:    p.ExpectedPatients,
		ExpectedProcedures:  p.ExpectedProcedures,
		Status:              string(p.Status),
		PublishedAt:         dto.FormatTime(p.PublishedAt),
		ExpiresAt:           dto.FormatTime(p.ExpiresAt),
		CandidateCount:      p.CandidateCount,
		ViewCount:           p.ViewCount,
		ChosenAt:            dto.FormatTime(p.ChosenAt),
		ConfirmationSentAt:  dto.FormatTime(p.ConfirmationSentAt),
		ConfirmationOutcome: p.ConfirmationOutcome,
		RejectionReason:     p.RejectionReason,
		Observations:        p.Observations,
		Version:             p.Version,
		CreatedAt:           dto.FormatTime(&p.CreatedAt),
	}
	if p.CreatorProfessionalID != nil {
		resp.CreatorProfessionalID = *p.CreatorProfessionalID
	}
	if p.ChosenProfessionalID != nil {
		resp.ChosenProfessionalID = *p.ChosenProfessionalID
	}
	if p.Clinic != nil {
		resp.ClinicName = p.Clinic.Name
	}
	for _, item := range p.Procedures {
		resp.Procedures = append(resp.Procedures, dto.ProcedureShareResponse{
			Procedure:  item.Procedure,
			Percentage: item.Percentage,
		})
	}
	return resp
}

func toApplicationResponse(a *model.Application) dto.ApplicationResponse {
	resp := dto.ApplicationResponse{
		ID:             a.ApplicationID,
		PostingID:      a.PostingID,
		ProfessionalID: a.ProfessionalID,
		Message:        a.Message,
		Status:         string(a.Status),
		ResultNotified: a.ResultNotified,
		CreatedAt:      dto.FormatTime(&a.CreatedAt),
	}
	if pro := a.Professional; pro != nil {
		resp.ProfessionalName = pro.Name
		resp.Rating = pro.Rating
		rate := pro.AttendanceRate
		resp.AttendanceRate = &rate
	}
	return resp
}

// transition applies a lifecycle move, reporting a refused one as ErrInvalidState.
func transition(p *model.Posting, next model.PostingStatus) error {
	if err := p.TransitionTo(next); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return nil
}

func parseDay(value string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(model.DateLayout, value, loc)
	if err != nil {
		return time.Time{}, validationError("data inválida %q", value)
	}
	return day, nil
}

// normalizePhone keeps the digits and prefixes "+", the stored E.164 form.
func normalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "+" + b.String()
}

func specialtySuffix(specialty string) string {
	if specialty == "" {
		return ""
	}
	return " em " + specialty
}

// businessLocation the configured timezone, UTC when it cannot be loaded.
func businessLocation(cfg *config.SubstitutionConfig, logger *zap.Logger) *time.Location {
	loc, err := cfg.Location()
	if err != nil {
		logger.Warn("fuso horário inválido, usando UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
		return time.UTC
	}
	return loc
}

func ptr[T any](v T) *T { return &v }

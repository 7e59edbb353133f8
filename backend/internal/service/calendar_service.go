package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"plantao/backend/config"
	"plantao/backend/internal/dto"
	"plantao/backend/internal/model"
	"plantao/backend/internal/repository"
)

const (
	icsMaxFileSize = 5 * 1024 * 1024 // 5MB
	icsMaxEvents   = 500
	icsProductID   = "-//Plantao//Agenda de Substituicoes//PT"
)

// CalendarService a professional's schedule blocks: manual entries and iCalendar import/export
type CalendarService interface {
	ListBlocks(ctx context.Context, professionalID string) ([]dto.BlockResponse, error)
	AddManualBlock(ctx context.Context, professionalID string, req *dto.CreateBlockRequest) (*dto.BlockResponse, error)
	// DeactivateBlock removes a MANUAL block; SUBSTITUTION blocks follow their posting.
	DeactivateBlock(ctx context.Context, blockID, callerID string) error
	// ExportBlocks renders the active blocks as an iCalendar feed.
	ExportBlocks(ctx context.Context, professionalID string) (string, error)
	// ImportBlocks turns the VEVENTs of an .ics file into MANUAL blocks. Past events are skipped.
	ImportBlocks(ctx context.Context, professionalID string, r io.Reader) (*dto.ImportBlocksResponse, error)
}

type calendarService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewCalendarService creates a CalendarService
func NewCalendarService(cfg *config.SubstitutionConfig, repo *repository.Repository, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, loc: businessLocation(cfg, logger), logger: logger, now: time.Now}
}

// ════════════════════════════════════════════════════════════
// Manual blocks
// ════════════════════════════════════════════════════════════

func (s *calendarService) ListBlocks(ctx context.Context, professionalID string) ([]dto.BlockResponse, error) {
	blocks, err := s.repo.ScheduleBlock.ListActiveByProfessional(ctx, professionalID)
	if err != nil {
		s.logger.Error("falha ao listar agenda", zap.Error(err))
		return nil, err
	}
	list := make([]dto.BlockResponse, 0, len(blocks))
	for i := range blocks {
		list = append(list, toBlockResponse(&blocks[i]))
	}
	return list, nil
}

func (s *calendarService) AddManualBlock(ctx context.Context, professionalID string, req *dto.CreateBlockRequest) (*dto.BlockResponse, error) {
	start, err := parseDay(req.StartDate, s.loc)
	if err != nil {
		return nil, err
	}
	end, err := parseDay(req.EndDate, s.loc)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, validationError("data final anterior à inicial")
	}
	if (req.StartTime == "") != (req.EndTime == "") {
		return nil, validationError("informe horário de início e de término")
	}

	block := s.manualBlock(professionalID, start, end, req.StartTime, req.EndTime, strings.TrimSpace(req.Note))
	if err := s.repo.ScheduleBlock.Create(ctx, block); err != nil {
		s.logger.Error("falha ao criar bloqueio de agenda", zap.Error(err))
		return nil, err
	}

	s.logger.Info("bloqueio de agenda criado",
		zap.String("professional_id", professionalID),
		zap.String("block_id", block.BlockID),
	)
	return ptr(toBlockResponse(block)), nil
}

func (s *calendarService) DeactivateBlock(ctx context.Context, blockID, callerID string) error {
	block, err := s.repo.ScheduleBlock.GetByID(ctx, blockID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBlockNotFound
		}
		s.logger.Error("falha ao consultar bloqueio de agenda", zap.Error(err))
		return err
	}
	if block.ProfessionalID != callerID {
		return ErrMismatch
	}
	if block.Type != model.BlockManual {
		return fmt.Errorf("%w: bloqueio de substituição confirmada", ErrInvalidState)
	}
	if !block.Active {
		return nil
	}

	if err := s.repo.ScheduleBlock.Deactivate(ctx, blockID, callerID); err != nil {
		s.logger.Error("falha ao remover bloqueio de agenda", zap.Error(err))
		return err
	}
	return nil
}

func (s *calendarService) manualBlock(professionalID string, start, end time.Time, startTime, endTime, note string) *model.ScheduleBlock {
	block := &model.ScheduleBlock{
		BlockID:        uuid.NewString(),
		ProfessionalID: professionalID,
		Type:           model.BlockManual,
		StartDate:      start,
		EndDate:        end,
		StartTime:      startTime,
		EndTime:        endTime,
		Active:         true,
		Note:           note,
	}
	block.CreatedBy = &professionalID
	block.UpdatedBy = &professionalID
	return block
}

// ════════════════════════════════════════════════════════════
// iCalendar export
// ════════════════════════════════════════════════════════════
//
// Blocks with a time window become timed events from the first day's start
// to the last day's end; the rest are all-day events (DTEND exclusive).

func (s *calendarService) ExportBlocks(ctx context.Context, professionalID string) (string, error) {
	blocks, err := s.repo.ScheduleBlock.ListActiveByProfessional(ctx, professionalID)
	if err != nil {
		s.logger.Error("falha ao listar agenda", zap.Error(err))
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName("Plantão: agenda de substituições")
	cal.SetXWRTimezone(s.loc.String())

	stamp := s.now().UTC()
	for i := range blocks {
		b := &blocks[i]
		start := model.CalendarDay(b.StartDate, s.loc)
		end := model.CalendarDay(b.EndDate, s.loc)

		ev := cal.AddEvent(b.BlockID + "@plantao")
		ev.SetDtStampTime(stamp)
		ev.SetSummary(blockSummary(b))
		if b.Note != "" {
			ev.SetDescription(b.Note)
		}

		startAt, okStart := atClock(start, b.StartTime)
		endAt, okEnd := atClock(end, b.EndTime)
		if okStart && okEnd && endAt.After(startAt) {
			ev.SetStartAt(startAt)
			ev.SetEndAt(endAt)
		} else {
			ev.SetAllDayStartAt(start)
			ev.SetAllDayEndAt(end.AddDate(0, 0, 1))
		}
	}
	return cal.Serialize(), nil
}

func blockSummary(b *model.ScheduleBlock) string {
	if b.Type == model.BlockSubstitution {
		return "Substituição confirmada"
	}
	if b.Note != "" {
		return "Indisponível: " + b.Note
	}
	return "Indisponível"
}

// atClock combines a day with an "HH:MM" clock in the day's location.
func atClock(day time.Time, clock string) (time.Time, bool) {
	if clock == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), true
}

// ════════════════════════════════════════════════════════════
// iCalendar import
// ════════════════════════════════════════════════════════════

func (s *calendarService) ImportBlocks(ctx context.Context, professionalID string, r io.Reader) (*dto.ImportBlocksResponse, error) {
	cal, err := ics.ParseCalendar(io.LimitReader(r, icsMaxFileSize))
	if err != nil {
		return nil, validationError("arquivo iCalendar inválido: %v", err)
	}

	today := model.DateOf(s.now(), s.loc)
	resp := &dto.ImportBlocksResponse{}
	var blocks []*model.ScheduleBlock

	for _, evt := range cal.Events() {
		if len(blocks) >= icsMaxEvents {
			resp.Skipped++
			continue
		}
		block, ok := s.blockFromEvent(professionalID, evt)
		if !ok || block.EndDate.Before(today) {
			resp.Skipped++
			continue
		}
		blocks = append(blocks, block)
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		for _, b := range blocks {
			if err := tx.ScheduleBlock.Create(ctx, b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("falha ao importar agenda", zap.Error(err))
		return nil, err
	}
	resp.Imported = len(blocks)

	s.logger.Info("agenda importada",
		zap.String("professional_id", professionalID),
		zap.Int("imported", resp.Imported),
		zap.Int("skipped", resp.Skipped),
	)
	return resp, nil
}

// blockFromEvent maps one VEVENT. Date-only DTEND is exclusive; a timed event
// keeps its clock window only when it starts and ends on the same day.
func (s *calendarService) blockFromEvent(professionalID string, evt *ics.VEvent) (*model.ScheduleBlock, bool) {
	dtStart, allDay, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, s.loc)
	if err != nil {
		return nil, false
	}
	dtEnd, _, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, s.loc)
	if err != nil {
		dtEnd = dtStart
		if allDay {
			dtEnd = dtStart.AddDate(0, 0, 1)
		}
	}

	start := model.DateOf(dtStart, s.loc)
	end := model.DateOf(dtEnd, s.loc)
	var startTime, endTime string
	if allDay {
		if end.After(start) {
			end = end.AddDate(0, 0, -1)
		}
	} else if start.Equal(end) {
		startTime = dtStart.Format("15:04")
		endTime = dtEnd.Format("15:04")
	}
	if end.Before(start) {
		return nil, false
	}

	note := ""
	if summary := evt.GetProperty(ics.ComponentPropertySummary); summary != nil {
		note = strings.TrimSpace(summary.Value)
		if len([]rune(note)) > 500 {
			note = string([]rune(note)[:500])
		}
	}
	return s.manualBlock(professionalID, start, end, startTime, endTime, note), true
}

// parseICSDateTime reads a DATE or DATE-TIME property (UTC "Z", TZID or floating) into loc.
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, bool, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, false, fmt.Errorf("propriedade %s ausente", propName)
	}
	val := strings.TrimSpace(prop.Value)

	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.EqualFold(k, "TZID") && len(v) > 0 {
			tzid = v[0]
		}
	}

	if t, err := time.ParseInLocation("20060102", val, loc); err == nil {
		return t, true, nil
	}
	if t, err := time.Parse("20060102T150405Z", val); err == nil {
		return t.In(loc), false, nil
	}
	t, err := time.Parse("20060102T150405", val)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("data inválida: %s", val)
	}
	zone := loc
	if tzid != "" {
		if tzLoc, err := time.LoadLocation(tzid); err == nil {
			zone = tzLoc
		}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, zone).In(loc), false, nil
}

func toBlockResponse(b *model.ScheduleBlock) dto.BlockResponse {
	resp := dto.BlockResponse{
		ID:        b.BlockID,
		Type:      string(b.Type),
		StartDate: b.StartDate.Format(model.DateLayout),
		EndDate:   b.EndDate.Format(model.DateLayout),
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Note:      b.Note,
	}
	if b.PostingID != nil {
		resp.PostingID = *b.PostingID
	}
	return resp
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"plantao/backend/config"
	"plantao/backend/internal/model"
	"plantao/backend/internal/repository"
)

// ── export errors ──

var (
	ErrExportNoRecords    = errors.New("nenhum registro de presença no período")
	ErrExportGenerateFail = errors.New("falha ao gerar planilha")
)

// ExportService attendance report for clinics.
//
// The workbook is returned as a buffer; the handler sets the download headers.
// One sheet, one row per attendance record, ordered by validation time.
type ExportService interface {
	// ExportAttendance records of clinicID validated in [from, to), dates as YYYY-MM-DD.
	ExportAttendance(ctx context.Context, clinicID, from, to, callerID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
}

// NewExportService creates an ExportService
func NewExportService(cfg *config.SubstitutionConfig, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, loc: businessLocation(cfg, logger), logger: logger}
}

var attendanceHeaders = []string{
	"Data da substituição", "Profissional", "Compareceu", "Minutos de atraso",
	"Pontualidade (1-5)", "Ausência justificada", "Motivo da ausência", "Observações", "Validado em",
}

func (s *exportService) ExportAttendance(ctx context.Context, clinicID, from, to, callerID string) (*bytes.Buffer, string, error) {
	start, err := parseDay(from, s.loc)
	if err != nil {
		return nil, "", err
	}
	end, err := parseDay(to, s.loc)
	if err != nil {
		return nil, "", err
	}
	if !end.After(start) {
		return nil, "", validationError("período vazio")
	}

	// 1. clinic and ownership
	clinic, err := s.repo.Clinic.GetByID(ctx, clinicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrClinicNotFound
		}
		s.logger.Error("falha ao consultar clínica", zap.Error(err))
		return nil, "", err
	}
	if clinic.OwnerID != callerID {
		return nil, "", ErrNotClinicOwner
	}

	// 2. records
	records, err := s.repo.Attendance.ListByClinic(ctx, clinicID, start, end)
	if err != nil {
		s.logger.Error("falha ao listar presenças", zap.Error(err))
		return nil, "", err
	}
	if len(records) == 0 {
		return nil, "", ErrExportNoRecords
	}

	// 3. workbook
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Presenças"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 22)
	f.SetColWidth(sheetName, "B", "B", 30)
	f.SetColWidth(sheetName, "C", "F", 16)
	f.SetColWidth(sheetName, "G", "H", 40)
	f.SetColWidth(sheetName, "I", "I", 20)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	noShowStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F8CBAD"}, Pattern: 1},
	})

	// title
	lastCol := colName(len(attendanceHeaders) - 1)
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s: presenças de %s a %s",
		clinic.Name, start.Format("02/01/2006"), end.AddDate(0, 0, -1).Format("02/01/2006")))
	f.MergeCell(sheetName, "A1", cell(lastCol, 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// header
	row := 2
	for i, h := range attendanceHeaders {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(lastCol, row), headerStyle)

	// data
	row = 3
	for _, rec := range records {
		values := []interface{}{
			s.postingDay(rec.Posting),
			professionalName(rec.Professional, rec.ProfessionalID),
			yesNo(rec.Attended),
			rec.MinutesLate,
			"-",
			"-",
			rec.NoShowReason,
			rec.Observations,
			rec.CreatedAt.In(s.loc).Format("02/01/2006 15:04"),
		}
		if rec.PunctualityRating != nil {
			values[4] = *rec.PunctualityRating
		}
		if !rec.Attended {
			values[5] = yesNo(rec.Justified)
		}
		for i, v := range values {
			f.SetCellValue(sheetName, cell(colName(i), row), v)
		}
		if !rec.Attended {
			f.SetCellStyle(sheetName, cell("A", row), cell(lastCol, row), noShowStyle)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("falha ao gravar planilha", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("presencas_%s_%s_%s.xlsx", clinic.ClinicID, from, to)
	return buf, filename, nil
}

func (s *exportService) postingDay(p *model.Posting) string {
	if p == nil {
		return "-"
	}
	start, end, ok := p.DateSpan(s.loc)
	if !ok {
		return "-"
	}
	if start.Equal(end) {
		return start.Format("02/01/2006")
	}
	return start.Format("02/01/2006") + " a " + end.Format("02/01/2006")
}

// ── helpers ──

func professionalName(p *model.Professional, fallback string) string {
	if p == nil || p.Name == "" {
		return fallback
	}
	return p.Name
}

func yesNo(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

package service

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"golang.org/x/crypto/bcrypt"

	"plantao/backend/internal/model"
)

func goldenOffer(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestRenderOffer_Immediate(t *testing.T) {
	loc, _ := time.LoadLocation("America/Sao_Paulo")
	at := time.Date(2026, 3, 10, 15, 30, 0, 0, loc)
	rate := 1234.5
	patients := 12
	rating := 4.9

	body := RenderOffer(OfferView{
		Posting: &model.Posting{
			CreatorType:        model.CreatorClinic,
			Reason:             "Dentista titular afastado por doença",
			ScheduleMode:       model.ScheduleImmediate,
			ImmediateAt:        &at,
			StartTime:          "13:00",
			EndTime:            "19:00",
			CompensationModel:  model.CompensationDailyRate,
			DailyRate:          &rate,
			PaymentMethod:      "PIX",
			AttendanceType:     "Urgência",
			ExpectedPatients:   &patients,
			ExpectedProcedures: "Tratamento de canal, curativos",
		},
		Clinic: &model.Clinic{
			Name:     "Clínica Sorriso",
			Street:   "Rua Augusta",
			Number:   "100",
			District: "Consolação",
			City:     "São Paulo",
			State:    "SP",
			ZipCode:  "01304-000",
		},
		Professional: &model.Professional{
			Name:           "Dra. Beatriz Lima",
			Rating:         &rating,
			AttendanceRate: 95.5,
			GraduationYear: 2015,
			Specialty:      "Endodontia",
		},
		Code:     "482913",
		DeepLink: DeepLink("https://app.plantao.com.br/", "posting-1"),
		Now:      at,
		Location: loc,
	})

	goldenOffer(t).Assert(t, "offer_immediate", []byte(body))
}

func TestRenderOffer_DateRangePercentage(t *testing.T) {
	loc, _ := time.LoadLocation("America/Sao_Paulo")
	// DATE columns come back as UTC midnight
	start := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)

	body := RenderOffer(OfferView{
		Posting: &model.Posting{
			CreatorType:       model.CreatorProfessional,
			ScheduleMode:      model.ScheduleDateRange,
			PeriodStart:       &start,
			PeriodEnd:         &end,
			CompensationModel: model.CompensationPercentage,
			Procedures: []model.ProcedureShare{
				{Procedure: "Canal", Percentage: 40},
				{Procedure: "Extração", Percentage: 37.5},
			},
			PaymentMethod: "Transferência",
			Payer:         "Clínica",
		},
		Clinic: &model.Clinic{
			Name:       "Odonto Paulista",
			Street:     "Av. Paulista",
			Number:     "1000",
			Complement: "Sala 2",
			District:   "Bela Vista",
			City:       "São Paulo",
			State:      "SP",
		},
		Professional: &model.Professional{
			Name:           "Dr. Carlos Souza",
			AttendanceRate: 100,
		},
		Code:     "105522",
		DeepLink: DeepLink("https://app.plantao.com.br", "posting-2"),
		Now:      time.Date(2026, 3, 10, 9, 0, 0, 0, loc),
		Location: loc,
	})

	goldenOffer(t).Assert(t, "offer_date_range", []byte(body))
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		text     string
		approved bool
		code     string
		reason   string
		wantErr  error
	}{
		{text: "APROVAR 123456", approved: true, code: "123456"},
		{text: "  aprovar   *123456*. ", approved: true, code: "123456"},
		{text: "Recusar 654321 horário não serve", code: "654321", reason: "horário não serve"},
		{text: "RECUSAR 654321", code: "654321"},
		{text: "APROVAR", wantErr: ErrValidation},
		{text: "", wantErr: ErrValidation},
		{text: "SIM 123456", wantErr: ErrValidation},
		{text: "APROVAR 12345", wantErr: ErrInvalidCode},
		{text: "APROVAR 12a456", wantErr: ErrInvalidCode},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd, err := ParseReply(tt.text)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseReply: %v", err)
			}
			if cmd.Approved != tt.approved || cmd.Code != tt.code || cmd.Reason != tt.reason {
				t.Errorf("cmd = %+v", cmd)
			}
		})
	}
}

func TestCodeIssuer_Range(t *testing.T) {
	issuer := NewCodeIssuer()
	for i := 0; i < 500; i++ {
		code, err := issuer.Issue()
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		n, err := strconv.Atoi(code)
		if err != nil || len(code) != 6 || n < 100000 || n > 999999 {
			t.Fatalf("code %q out of range", code)
		}
	}
}

func TestHashAndVerifyCode(t *testing.T) {
	hash, err := hashCode("123456", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashCode: %v", err)
	}
	if hash == "123456" {
		t.Fatal("code stored in clear")
	}
	if !verifyCode(hash, "123456") {
		t.Error("matching code rejected")
	}
	if verifyCode(hash, "123457") {
		t.Error("wrong code accepted")
	}
	if verifyCode("", "123456") {
		t.Error("empty hash must match nothing")
	}
}

func TestFormatBRL(t *testing.T) {
	tests := map[float64]string{
		0:          "R$ 0,00",
		450:        "R$ 450,00",
		1234.5:     "R$ 1.234,50",
		1000000.99: "R$ 1.000.000,99",
		-80.1:      "-R$ 80,10",
	}
	for v, want := range tests {
		if got := formatBRL(v); got != want {
			t.Errorf("formatBRL(%v) = %q, want %q", v, got, want)
		}
	}
}

func TestFormatYears(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	tests := map[int]string{
		0:    "não informado",
		2026: "menos de 1 ano",
		2025: "1 ano",
		2010: "16 anos",
	}
	for year, want := range tests {
		if got := formatYears(&model.Professional{GraduationYear: year}, now); got != want {
			t.Errorf("formatYears(%d) = %q, want %q", year, got, want)
		}
	}
}

func TestDeepLink(t *testing.T) {
	if got := DeepLink("https://app.plantao.com.br/", "abc"); got != "https://app.plantao.com.br/substituicoes/abc/confirmar" {
		t.Errorf("DeepLink = %q", got)
	}
}

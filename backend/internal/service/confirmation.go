package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"plantao/backend/internal/model"
)

// ── confirmation codes ──

const (
	codeMin = 100000
	codeMax = 999999
)

// CodeIssuer produces confirmation codes.
type CodeIssuer interface {
	Issue() (string, error)
}

type randomCodeIssuer struct{}

// NewCodeIssuer returns an issuer drawing uniformly from 100000–999999.
func NewCodeIssuer() CodeIssuer { return randomCodeIssuer{} }

func (randomCodeIssuer) Issue() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", fmt.Errorf("falha ao gerar código: %w", err)
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}

// hashCode stores codes the way passwords are stored.
func hashCode(code string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(code), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// verifyCode reports whether code matches hash. An empty hash (consumed or
// never issued) matches nothing.
func verifyCode(hash, code string) bool {
	if hash == "" || code == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}

// ── reply convention ──

const (
	replyApprove = "APROVAR"
	replyReject  = "RECUSAR"
)

// ReplyCommand a parsed WhatsApp answer.
type ReplyCommand struct {
	Approved bool
	Code     string
	Reason   string
}

// ParseReply reads "APROVAR <código>" or "RECUSAR <código> [motivo]".
// The keyword is case-insensitive; surrounding punctuation on the code is ignored.
func ParseReply(text string) (*ReplyCommand, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return nil, validationError("resposta deve ser %s <código> ou %s <código> [motivo]", replyApprove, replyReject)
	}

	cmd := &ReplyCommand{Code: strings.Trim(fields[1], ".,;:!*")}
	switch strings.ToUpper(fields[0]) {
	case replyApprove:
		cmd.Approved = true
	case replyReject:
		cmd.Reason = strings.TrimSpace(strings.Join(fields[2:], " "))
	default:
		return nil, validationError("comando desconhecido %q", fields[0])
	}

	if len(cmd.Code) != 6 {
		return nil, ErrInvalidCode
	}
	if _, err := strconv.Atoi(cmd.Code); err != nil {
		return nil, ErrInvalidCode
	}
	return cmd, nil
}

// ── offer rendering ──

// OfferView everything the clinic needs to decide on the chosen candidate.
type OfferView struct {
	Posting      *model.Posting
	Clinic       *model.Clinic
	Professional *model.Professional
	Code         string
	DeepLink     string
	Now          time.Time
	Location     *time.Location
}

var weekdaysPT = [...]string{"domingo", "segunda-feira", "terça-feira", "quarta-feira", "quinta-feira", "sexta-feira", "sábado"}

// RenderOffer builds the WhatsApp message sent to the clinic's responsible party.
func RenderOffer(v OfferView) string {
	p := v.Posting
	loc := v.Location
	if loc == nil {
		loc = time.UTC
	}

	var b strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("*Confirmação de substituição*")
	line("")
	line("%s", offerMotive(p))
	line("")

	line("*Profissional escolhido*")
	if pro := v.Professional; pro != nil {
		line("Nome: %s", pro.Name)
		line("Avaliação: %s", formatRating(pro.Rating))
		line("Comparecimento: %s%%", formatDecimal(pro.AttendanceRate, 2))
		line("Tempo de formado: %s", formatYears(pro, v.Now))
		line("Especialidade: %s", orDefault(pro.Specialty, "não informada"))
	}
	line("")

	line("*Quando*")
	switch p.ScheduleMode {
	case model.ScheduleImmediate:
		if p.ImmediateAt != nil {
			at := p.ImmediateAt.In(loc)
			line("Imediato: %s às %s", formatDayPT(at), at.Format("15:04"))
		}
	case model.ScheduleSpecificDate:
		if p.SpecificDate != nil {
			line("Data: %s", formatDayPT(model.CalendarDay(*p.SpecificDate, loc)))
		}
	case model.ScheduleDateRange:
		if p.PeriodStart != nil && p.PeriodEnd != nil {
			line("Período: %s a %s",
				formatDayPT(model.CalendarDay(*p.PeriodStart, loc)),
				formatDayPT(model.CalendarDay(*p.PeriodEnd, loc)))
		}
	}
	if p.StartTime != "" && p.EndTime != "" {
		line("Horário: %s às %s", p.StartTime, p.EndTime)
	}
	line("")

	if c := v.Clinic; c != nil {
		line("*Onde*")
		line("%s", c.Name)
		if addr := c.FullAddress(); addr != "" {
			line("%s", addr)
		}
		line("")
	}

	line("*Remuneração*")
	switch p.CompensationModel {
	case model.CompensationDailyRate:
		if p.DailyRate != nil {
			line("Diária: %s", formatBRL(*p.DailyRate))
		}
	case model.CompensationPercentage:
		line("Percentual por procedimento:")
		for _, item := range p.Procedures {
			line("- %s: %s%%", item.Procedure, formatDecimal(item.Percentage, -1))
		}
	}
	line("Forma de pagamento: %s", orDefault(p.PaymentMethod, "a combinar"))
	line("Pagador: %s", orDefault(p.Payer, "a combinar"))

	if p.ScheduleMode == model.ScheduleImmediate {
		line("")
		line("*Atendimento*")
		line("Tipo: %s", p.AttendanceType)
		if p.ExpectedPatients != nil {
			line("Pacientes previstos: %d", *p.ExpectedPatients)
		}
		if p.ExpectedProcedures != "" {
			line("Procedimentos previstos: %s", p.ExpectedProcedures)
		}
	}

	line("")
	line("Código de confirmação: *%s*", v.Code)
	line("Para aprovar, responda: %s %s", replyApprove, v.Code)
	line("Para recusar, responda: %s %s <motivo>", replyReject, v.Code)
	b.WriteString("Ou acesse: " + v.DeepLink)
	return b.String()
}

// DeepLink the confirmation page for a posting.
func DeepLink(base, postingID string) string {
	return strings.TrimRight(base, "/") + "/substituicoes/" + postingID + "/confirmar"
}

func offerMotive(p *model.Posting) string {
	reason := orDefault(p.Reason, "não informado")
	if p.CreatorType == model.CreatorProfessional {
		return "Afastamento do profissional titular: " + reason
	}
	return "Solicitação da clínica: " + reason
}

func formatDayPT(t time.Time) string {
	return fmt.Sprintf("%s (%s)", t.Format("02/01/2006"), weekdaysPT[t.Weekday()])
}

func formatRating(r *float64) string {
	if r == nil {
		return "sem avaliações"
	}
	return formatDecimal(*r, 1)
}

func formatYears(p *model.Professional, now time.Time) string {
	if p.GraduationYear <= 0 {
		return "não informado"
	}
	switch n := p.YearsSinceGraduation(now); n {
	case 0:
		return "menos de 1 ano"
	case 1:
		return "1 ano"
	default:
		return fmt.Sprintf("%d anos", n)
	}
}

// formatDecimal uses a decimal comma; prec -1 keeps the shortest representation.
func formatDecimal(v float64, prec int) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', prec, 64), ".", ",", 1)
}

// formatBRL renders R$ 1.234,50.
func formatBRL(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]

	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var grouped []string
	for len(intPart) > 3 {
		grouped = append([]string{intPart[len(intPart)-3:]}, grouped...)
		intPart = intPart[:len(intPart)-3]
	}
	grouped = append([]string{intPart}, grouped...)

	out := "R$ " + strings.Join(grouped, ".") + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

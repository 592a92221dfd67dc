package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/conselho-tutelar/atendimento-service/internal/models"
	"github.com/conselho-tutelar/atendimento-service/internal/repository"
)

const dateLayout = "2006-01-02"

// Clock provides the current time. Tests use a fixed clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// CreateCaseInput holds an intake form submission.
type CreateCaseInput struct {
	ChildName      string
	BirthDate      string
	Sex            string
	Schooling      string
	FatherName     string
	MotherName     string
	Street         string
	Number         string
	Neighborhood   string
	City           string
	State          string
	PostalCode     string
	GuardianPhone  string
	Description    string
	Measures       string
	CounselorID    *int64
	AttendanceCode string
}

// CreateCaseResult identifies a newly registered case.
type CreateCaseResult struct {
	CaseID          int64
	ProcedureNumber string
}

// UpdateCaseInput holds the editable case fields. Nil fields are kept;
// SetCounselor with a nil CounselorID clears the assignment.
type UpdateCaseInput struct {
	Description  *string
	Measures     *string
	Status       *string
	SetCounselor bool
	CounselorID  *int64
}

// CaseService manages intake cases.
type CaseService interface {
	Create(ctx context.Context, in CreateCaseInput) (*CreateCaseResult, error)
	List(ctx context.Context, status string) ([]models.CaseListItem, error)
	Get(ctx context.Context, id int64) (*models.CaseDetail, error)
	Update(ctx context.Context, id int64, in UpdateCaseInput) (*models.CaseDetail, error)
	Finalize(ctx context.Context, id int64) error
}

type caseService struct {
	caseRepo repository.CaseRepository
	userRepo repository.UserRepository
	clock    Clock
}

// NewCaseService creates a new CaseService instance.
func NewCaseService(caseRepo repository.CaseRepository, userRepo repository.UserRepository, clock Clock) CaseService {
	if clock == nil {
		clock = SystemClock
	}
	return &caseService{caseRepo: caseRepo, userRepo: userRepo, clock: clock}
}

// FormatProcedureNumber renders the human-readable case number: the case
// id zero-padded to four digits, a slash, and the two-digit year.
func FormatProcedureNumber(caseID int64, at time.Time) string {
	return fmt.Sprintf("%04d/%02d", caseID, at.Year()%100)
}

// Create registers a case in one transaction: optional address, child,
// case, procedure number, then one guardian per parent name given. Any
// failure rolls back every insert.
func (s *caseService) Create(ctx context.Context, in CreateCaseInput) (*CreateCaseResult, error) {
	in.ChildName = strings.TrimSpace(in.ChildName)
	if in.ChildName == "" {
		return nil, invalid("O nome da criança é obrigatório.")
	}

	birthDate, err := parseDate(in.BirthDate)
	if err != nil {
		return nil, err
	}

	if in.CounselorID != nil {
		if err := s.ensureUser(ctx, *in.CounselorID); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	result := &CreateCaseResult{}

	err = s.caseRepo.Transaction(ctx, func(w repository.CaseWriter) error {
		var addressID *int64
		if in.Street != "" && in.City != "" && in.State != "" {
			address := &models.Address{
				Street:       in.Street,
				Number:       in.Number,
				Neighborhood: in.Neighborhood,
				City:         in.City,
				State:        in.State,
				PostalCode:   in.PostalCode,
			}
			if err := w.CreateAddress(address); err != nil {
				return err
			}
			addressID = &address.ID
		}

		child := &models.Child{
			Name:      in.ChildName,
			BirthDate: birthDate,
			Sex:       in.Sex,
			Schooling: in.Schooling,
		}
		if err := w.CreateChild(child); err != nil {
			return err
		}

		c := &models.Case{
			OpeningDate:    time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
			Status:         models.StatusInProgress,
			Description:    in.Description,
			Measures:       in.Measures,
			ChildID:        child.ID,
			RegisteredAt:   now,
			AttendanceCode: in.AttendanceCode,
			CounselorID:    in.CounselorID,
		}
		if err := w.CreateCase(c); err != nil {
			return err
		}

		number := FormatProcedureNumber(c.ID, now)
		if err := w.SetProcedureNumber(c.ID, number); err != nil {
			return err
		}

		for _, parent := range []struct{ name, kinship string }{
			{strings.TrimSpace(in.FatherName), models.KinshipFather},
			{strings.TrimSpace(in.MotherName), models.KinshipMother},
		} {
			if parent.name == "" {
				continue
			}
			guardian := &models.Guardian{
				Name:      parent.name,
				Kinship:   parent.kinship,
				Phone:     in.GuardianPhone,
				AddressID: addressID,
				CaseID:    c.ID,
			}
			if err := w.CreateGuardian(guardian); err != nil {
				return err
			}
		}

		result.CaseID = c.ID
		result.ProcedureNumber = number
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *caseService) List(ctx context.Context, status string) ([]models.CaseListItem, error) {
	return s.caseRepo.List(ctx, strings.TrimSpace(status))
}

func (s *caseService) Get(ctx context.Context, id int64) (*models.CaseDetail, error) {
	detail, err := s.caseRepo.FindDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return detail, nil
}

// Update overwrites the supplied fields and returns the refreshed case.
func (s *caseService) Update(ctx context.Context, id int64, in UpdateCaseInput) (*models.CaseDetail, error) {
	update := repository.CaseUpdate{
		Description:  in.Description,
		Measures:     in.Measures,
		SetCounselor: in.SetCounselor,
		CounselorID:  in.CounselorID,
	}

	if in.Status != nil {
		status, ok := models.NormalizeStatus(*in.Status)
		if !ok {
			return nil, invalid("Status inválido: %s.", *in.Status)
		}
		update.Status = &status
	}

	if in.SetCounselor && in.CounselorID != nil {
		if err := s.ensureUser(ctx, *in.CounselorID); err != nil {
			return nil, err
		}
	}

	if err := s.caseRepo.Update(ctx, id, update); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// Finalize marks the case as finalized and stamps the closing time.
func (s *caseService) Finalize(ctx context.Context, id int64) error {
	if err := s.caseRepo.Finalize(ctx, id, s.clock.Now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *caseService) ensureUser(ctx context.Context, id int64) error {
	if _, err := s.userRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("Conselheiro(a) %d não encontrado(a).", id)
		}
		return err
	}
	return nil
}

func parseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	date := value
	// Browsers may send a full ISO timestamp for date inputs; only the date
	// part is kept.
	if len(value) > len(dateLayout) && value[len(dateLayout)] == 'T' {
		date = value[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, invalid("Data de nascimento inválida: %s.", value)
	}
	return &t, nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/conselho-tutelar/atendimento-service/internal/models"
	"gorm.io/gorm"
)

// CaseWriter performs the inserts of a case intake inside one transaction.
type CaseWriter interface {
	CreateAddress(address *models.Address) error
	CreateChild(child *models.Child) error
	CreateCase(c *models.Case) error
	SetProcedureNumber(caseID int64, number string) error
	CreateGuardian(guardian *models.Guardian) error
}

// CaseUpdate lists the editable fields of a case. Nil fields are left as
// they are; SetCounselor with a nil CounselorID clears the assignment.
type CaseUpdate struct {
	Description  *string
	Measures     *string
	Status       *string
	SetCounselor bool
	CounselorID  *int64
}

// Empty reports whether u changes nothing.
func (u CaseUpdate) Empty() bool {
	return u.Description == nil && u.Measures == nil && u.Status == nil && !u.SetCounselor
}

// CaseRepository defines the interface for case data operations.
type CaseRepository interface {
	Transaction(ctx context.Context, fn func(w CaseWriter) error) error
	List(ctx context.Context, status string) ([]models.CaseListItem, error)
	FindDetail(ctx context.Context, id int64) (*models.CaseDetail, error)
	Update(ctx context.Context, id int64, update CaseUpdate) error
	Finalize(ctx context.Context, id int64, closedAt time.Time) error
	CountStatus(ctx context.Context, status string, match bool) (int64, error)
	NormalizeStatuses(ctx context.Context) (int64, error)
}

type caseRepository struct {
	db *gorm.DB
}

// NewCaseRepository creates a new CaseRepository instance.
func NewCaseRepository(db *gorm.DB) CaseRepository {
	return &caseRepository{db: db}
}

// Transaction runs fn in a database transaction, committing when fn
// returns nil and rolling back otherwise.
func (r *caseRepository) Transaction(ctx context.Context, fn func(w CaseWriter) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&caseWriter{tx: tx})
	})
}

type caseWriter struct {
	tx *gorm.DB
}

func (w *caseWriter) CreateAddress(address *models.Address) error {
	if err := w.tx.Create(address).Error; err != nil {
		return fmt.Errorf("failed to create address: %w", err)
	}
	return nil
}

func (w *caseWriter) CreateChild(child *models.Child) error {
	if err := w.tx.Create(child).Error; err != nil {
		return fmt.Errorf("failed to create child: %w", err)
	}
	return nil
}

func (w *caseWriter) CreateCase(c *models.Case) error {
	if err := w.tx.Omit("Child", "Counselor", "Guardians").Create(c).Error; err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}
	return nil
}

func (w *caseWriter) SetProcedureNumber(caseID int64, number string) error {
	err := w.tx.Model(&models.Case{}).
		Where("id_caso = ?", caseID).
		Update("numero_procedimento", number).Error
	if err != nil {
		return fmt.Errorf("failed to set procedure number for case %d: %w", caseID, err)
	}
	return nil
}

func (w *caseWriter) CreateGuardian(guardian *models.Guardian) error {
	if err := w.tx.Omit("Address").Create(guardian).Error; err != nil {
		return fmt.Errorf("failed to create guardian: %w", err)
	}
	return nil
}

// List returns every case, most recent first. A non-empty status filters
// by case-insensitive equality.
func (r *caseRepository) List(ctx context.Context, status string) ([]models.CaseListItem, error) {
	query := r.db.WithContext(ctx).
		Table("caso AS ca").
		Select(`ca.id_caso AS id, ca.data_abertura AS opening_date, ca.status AS status,
			ca.numero_procedimento AS procedure_number, c.nome AS child_name, u.nome AS counselor_name`).
		Joins("JOIN crianca c ON ca.id_crianca = c.id_crianca").
		Joins("LEFT JOIN usuario u ON ca.id_conselheira_atendimento = u.id_usuario")
	if status != "" {
		query = query.Where("LOWER(ca.status) = LOWER(?)", status)
	}

	items := []models.CaseListItem{}
	if err := query.Order("ca.data_abertura DESC").Order("ca.id_caso DESC").Scan(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	return items, nil
}

// FindDetail loads a case with its child, counselor and guardians and
// folds the guardians into deduplicated name, phone and address lists.
func (r *caseRepository) FindDetail(ctx context.Context, id int64) (*models.CaseDetail, error) {
	var c models.Case
	err := r.db.WithContext(ctx).
		Preload("Child").
		Preload("Counselor").
		Preload("Guardians", func(db *gorm.DB) *gorm.DB { return db.Order("id_responsavel ASC") }).
		Preload("Guardians.Address").
		First(&c, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find case %d: %w", id, notFound(err))
	}
	return buildDetail(&c), nil
}

func buildDetail(c *models.Case) *models.CaseDetail {
	detail := &models.CaseDetail{
		ID:              c.ID,
		OpeningDate:     c.OpeningDate,
		Status:          c.Status,
		Description:     c.Description,
		Measures:        c.Measures,
		AttendanceCode:  c.AttendanceCode,
		ProcedureNumber: c.ProcedureNumber,
		RegisteredAt:    c.RegisteredAt,
		ClosedAt:        c.ClosedAt,
		CounselorID:     c.CounselorID,
		GuardianNames:   []string{},
		GuardianPhones:  []string{},
		Addresses:       []string{},
	}
	if c.Child != nil {
		detail.ChildName = c.Child.Name
		detail.ChildBirthDate = c.Child.BirthDate
		detail.ChildSex = c.Child.Sex
		detail.ChildSchooling = c.Child.Schooling
	}
	if c.Counselor != nil {
		name := c.Counselor.Name
		detail.CounselorName = &name
	}

	for _, g := range c.Guardians {
		detail.GuardianNames = appendUnique(detail.GuardianNames, g.Name+" ("+g.Kinship+")")
		if g.Phone != "" {
			detail.GuardianPhones = appendUnique(detail.GuardianPhones, g.Phone)
		}
		if g.Address != nil {
			detail.Addresses = appendUnique(detail.Addresses, g.Address.Format())
		}
	}
	return detail
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}

func (r *caseRepository) Update(ctx context.Context, id int64, update CaseUpdate) error {
	fields := map[string]interface{}{}
	if update.Description != nil {
		fields["descricao_ocorrencia"] = *update.Description
	}
	if update.Measures != nil {
		fields["medidas_adotadas"] = *update.Measures
	}
	if update.Status != nil {
		fields["status"] = *update.Status
	}
	if update.SetCounselor {
		fields["id_conselheira_atendimento"] = update.CounselorID
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.ensureExists(tx, id); err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&models.Case{}).Where("id_caso = ?", id).Updates(fields).Error; err != nil {
			return fmt.Errorf("failed to update case %d: %w", id, err)
		}
		return nil
	})
}

func (r *caseRepository) Finalize(ctx context.Context, id int64, closedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.ensureExists(tx, id); err != nil {
			return err
		}
		err := tx.Model(&models.Case{}).
			Where("id_caso = ?", id).
			Updates(map[string]interface{}{
				"status":            models.StatusFinalized,
				"data_encerramento": closedAt,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to finalize case %d: %w", id, err)
		}
		return nil
	})
}

func (r *caseRepository) ensureExists(tx *gorm.DB, id int64) error {
	var count int64
	if err := tx.Model(&models.Case{}).Where("id_caso = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up case %d: %w", id, err)
	}
	if count == 0 {
		return fmt.Errorf("case %d: %w", id, ErrNotFound)
	}
	return nil
}

// CountStatus counts cases whose status equals status ignoring case, or,
// with match false, every other case.
func (r *caseRepository) CountStatus(ctx context.Context, status string, match bool) (int64, error) {
	op := "="
	if !match {
		op = "<>"
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Case{}).
		Where("LOWER(status) "+op+" LOWER(?)", status).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count cases: %w", err)
	}
	return count, nil
}

// NormalizeStatuses rewrites legacy status spellings to the canonical ones.
func (r *caseRepository) NormalizeStatuses(ctx context.Context) (int64, error) {
	var total int64
	for _, status := range []string{models.StatusInProgress, models.StatusFinalized, models.StatusArchived} {
		result := r.db.WithContext(ctx).
			Model(&models.Case{}).
			Where("LOWER(status) = LOWER(?) AND status <> ?", status, status).
			Update("status", status)
		if result.Error != nil {
			return total, fmt.Errorf("failed to normalize status %s: %w", status, result.Error)
		}
		total += result.RowsAffected
	}
	return total, nil
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/conselho-tutelar/atendimento-service/internal/metrics"
	"github.com/conselho-tutelar/atendimento-service/internal/service"
	"github.com/gin-gonic/gin"
)

// CaseHandler handles intake case requests.
type CaseHandler struct {
	caseService service.CaseService
	notifier    ChangeNotifier
	metrics     *metrics.Metrics
}

// NewCaseHandler creates a new CaseHandler instance. notifier may be nil.
func NewCaseHandler(caseService service.CaseService, notifier ChangeNotifier, m *metrics.Metrics) *CaseHandler {
	return &CaseHandler{caseService: caseService, notifier: notifierOrNop(notifier), metrics: m}
}

// CreateCaseRequest is the intake form.
type CreateCaseRequest struct {
	ChildName      string     `json:"nomeCrianca"`
	BirthDate      string     `json:"dataNascimento"`
	Sex            string     `json:"sexo"`
	Schooling      string     `json:"escolaridade"`
	FatherName     string     `json:"nomePai"`
	MotherName     string     `json:"nomeMae"`
	Street         string     `json:"enderecoRua"`
	Number         string     `json:"enderecoNumero"`
	Neighborhood   string     `json:"enderecoBairro"`
	City           string     `json:"enderecoCidade"`
	State          string     `json:"enderecoEstado"`
	PostalCode     string     `json:"enderecoCep"`
	GuardianPhone  string     `json:"telefoneResponsavel"`
	Description    string     `json:"descricaoOcorrencia"`
	Measures       string     `json:"medidasAdotadas"`
	CounselorID    OptionalID `json:"idConselheiraAtendimento"`
	AttendanceCode string     `json:"codigoAtendimento"`
}

// UpdateCaseRequest holds the editable case fields. Absent keys are left
// unchanged.
type UpdateCaseRequest struct {
	Description *string    `json:"descricao_ocorrencia"`
	Measures    *string    `json:"medidas_adotadas"`
	Status      *string    `json:"status"`
	CounselorID OptionalID `json:"id_conselheira_atendimento"`
}

// Create godoc
// @Summary Register case
// @Description Register child, guardians, address and case in one transaction
// @Tags cases
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body CreateCaseRequest true "Intake form"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /atendimentos [post]
func (h *CaseHandler) Create(c *gin.Context) {
	var req CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "Dados do atendimento inválidos.")
		return
	}

	result, err := h.caseService.Create(c.Request.Context(), service.CreateCaseInput{
		ChildName:      req.ChildName,
		BirthDate:      req.BirthDate,
		Sex:            req.Sex,
		Schooling:      req.Schooling,
		FatherName:     req.FatherName,
		MotherName:     req.MotherName,
		Street:         req.Street,
		Number:         req.Number,
		Neighborhood:   req.Neighborhood,
		City:           req.City,
		State:          req.State,
		PostalCode:     req.PostalCode,
		GuardianPhone:  req.GuardianPhone,
		Description:    req.Description,
		Measures:       req.Measures,
		CounselorID:    req.CounselorID.Value,
		AttendanceCode: req.AttendanceCode,
	})
	if err != nil {
		if respondValidation(c, err) {
			return
		}
		LogAndRespondError(c, http.StatusInternalServerError, err, "Erro ao registrar atendimento: "+err.Error())
		return
	}

	h.metrics.CaseCreated()
	h.notifier.Notify(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{
		"message":            "Atendimento registrado com sucesso!",
		"idCaso":             result.CaseID,
		"numeroProcedimento": result.ProcedureNumber,
	})
}

// List godoc
// @Summary List cases
// @Tags cases
// @Security BearerAuth
// @Produce json
// @Param status query string false "Case-insensitive status filter"
// @Success 200 {array} models.CaseListItem
// @Router /atendimentos [get]
func (h *CaseHandler) List(c *gin.Context) {
	items, err := h.caseService.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		LogAndRespondError(c, http.StatusInternalServerError, err, "Erro interno do servidor ao listar atendimentos.")
		return
	}
	c.JSON(http.StatusOK, items)
}

// Get godoc
// @Summary Case detail
// @Tags cases
// @Security BearerAuth
// @Produce json
// @Param id path int true "Case ID"
// @Success 200 {object} models.CaseDetail
// @Failure 404 {object} map[string]string
// @Router /atendimentos/{id} [get]
func (h *CaseHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "ID de atendimento inválido.")
		return
	}

	detail, err := h.caseService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "Atendimento não encontrado.")
			return
		}
		LogAndRespondError(c, http.StatusInternalServerError, err, msgInternalError)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Update godoc
// @Summary Update case
// @Tags cases
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Case ID"
// @Param request body UpdateCaseRequest true "Fields to overwrite"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /atendimentos/{id} [put]
func (h *CaseHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "ID de atendimento inválido.")
		return
	}

	var req UpdateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "Dados do atendimento inválidos.")
		return
	}

	detail, err := h.caseService.Update(c.Request.Context(), id, service.UpdateCaseInput{
		Description:  req.Description,
		Measures:     req.Measures,
		Status:       req.Status,
		SetCounselor: req.CounselorID.Set,
		CounselorID:  req.CounselorID.Value,
	})
	if err != nil {
		if respondValidation(c, err) {
			return
		}
		if errors.Is(err, service.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "Atendimento não encontrado.")
			return
		}
		LogAndRespondError(c, http.StatusInternalServerError, err, "Erro ao atualizar atendimento.")
		return
	}

	h.notifier.Notify(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "Atendimento atualizado com sucesso!", "atendimento": detail})
}

// Finalize godoc
// @Summary Finalize case
// @Tags cases
// @Security BearerAuth
// @Param id path int true "Case ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /atendimentos/{id}/finalizar [put]
func (h *CaseHandler) Finalize(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "ID de atendimento inválido.")
		return
	}

	if err := h.caseService.Finalize(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "Atendimento não encontrado.")
			return
		}
		LogAndRespondError(c, http.StatusInternalServerError, err, "Erro ao finalizar atendimento.")
		return
	}

	h.notifier.Notify(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "Atendimento finalizado com sucesso!"})
}

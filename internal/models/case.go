package models

import (
	"strings"
	"time"
)

// Case statuses. Stored values are always one of these spellings.
const (
	StatusInProgress = "Em Andamento"
	StatusFinalized  = "Finalizado"
	StatusArchived   = "Arquivado"
)

var knownStatuses = []string{StatusInProgress, StatusFinalized, StatusArchived}

// NormalizeStatus maps s, compared case-insensitively and ignoring
// surrounding spaces, to its canonical spelling.
func NormalizeStatus(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, known := range knownStatuses {
		if strings.EqualFold(s, known) {
			return known, true
		}
	}
	return "", false
}

// Kinship labels used for guardians created at intake.
const (
	KinshipFather = "Pai"
	KinshipMother = "Mãe"
)

// Child is the subject of a case.
type Child struct {
	ID        int64      `json:"id_crianca" gorm:"column:id_crianca;primaryKey;autoIncrement"`
	Name      string     `json:"nome" gorm:"column:nome;not null"`
	BirthDate *time.Time `json:"data_nascimento" gorm:"column:data_nascimento;type:date"`
	Sex       string     `json:"sexo" gorm:"column:sexo;size:20"`
	Schooling string     `json:"escolaridade" gorm:"column:escolaridade;size:100"`
}

// TableName returns the database table name for the Child model.
func (Child) TableName() string {
	return "crianca"
}

// Address is a postal address shared by the guardians of a case.
type Address struct {
	ID           int64  `json:"id_endereco" gorm:"column:id_endereco;primaryKey;autoIncrement"`
	Street       string `json:"rua" gorm:"column:rua;not null"`
	Number       string `json:"numero" gorm:"column:numero;size:20"`
	Neighborhood string `json:"bairro" gorm:"column:bairro"`
	City         string `json:"cidade" gorm:"column:cidade;not null"`
	State        string `json:"estado" gorm:"column:estado;not null;size:2"`
	PostalCode   string `json:"cep" gorm:"column:cep;size:10"`
}

// TableName returns the database table name for the Address model.
func (Address) TableName() string {
	return "endereco"
}

// Format renders the address the way case details display it.
func (a *Address) Format() string {
	return a.Street + ", " + a.Number + ", " + a.Neighborhood + ", " + a.City + "-" + a.State + " " + a.PostalCode
}

// Case is an intake record ("atendimento") for one child.
type Case struct {
	ID              int64      `json:"id_caso" gorm:"column:id_caso;primaryKey;autoIncrement"`
	OpeningDate     time.Time  `json:"data_abertura" gorm:"column:data_abertura;type:date;not null"`
	Status          string     `json:"status" gorm:"column:status;not null;size:50;index"`
	Description     string     `json:"descricao_ocorrencia" gorm:"column:descricao_ocorrencia;type:text"`
	Measures        string     `json:"medidas_adotadas" gorm:"column:medidas_adotadas;type:text"`
	ChildID         int64      `json:"id_crianca" gorm:"column:id_crianca;not null"`
	Child           *Child     `json:"-" gorm:"foreignKey:ChildID;references:ID;constraint:OnDelete:RESTRICT"`
	RegisteredAt    time.Time  `json:"data_hora_registro" gorm:"column:data_hora_registro;not null"`
	AttendanceCode  string     `json:"codigo_atendimento" gorm:"column:codigo_atendimento;size:50"`
	CounselorID     *int64     `json:"id_conselheira_atendimento" gorm:"column:id_conselheira_atendimento"`
	Counselor       *User      `json:"-" gorm:"foreignKey:CounselorID;references:ID;constraint:OnDelete:RESTRICT"`
	ProcedureNumber string     `json:"numero_procedimento" gorm:"column:numero_procedimento;size:20"`
	ClosedAt        *time.Time `json:"data_encerramento" gorm:"column:data_encerramento"`
	Guardians       []Guardian `json:"-" gorm:"foreignKey:CaseID;references:ID"`
}

// TableName returns the database table name for the Case model.
func (Case) TableName() string {
	return "caso"
}

// Guardian is a parent or other responsible adult linked to a case.
type Guardian struct {
	ID        int64    `json:"id_responsavel" gorm:"column:id_responsavel;primaryKey;autoIncrement"`
	Name      string   `json:"nome" gorm:"column:nome;not null"`
	Kinship   string   `json:"grau_parentesco" gorm:"column:grau_parentesco;size:30"`
	Phone     string   `json:"telefone" gorm:"column:telefone;size:30"`
	AddressID *int64   `json:"id_endereco" gorm:"column:id_endereco"`
	Address   *Address `json:"-" gorm:"foreignKey:AddressID;references:ID"`
	CaseID    int64    `json:"id_caso" gorm:"column:id_caso;not null"`
}

// TableName returns the database table name for the Guardian model.
func (Guardian) TableName() string {
	return "responsavel"
}

// CaseListItem is one row of the case listing.
type CaseListItem struct {
	ID              int64     `json:"id_caso"`
	OpeningDate     time.Time `json:"data_abertura"`
	Status          string    `json:"status"`
	ProcedureNumber string    `json:"numero_procedimento"`
	ChildName       string    `json:"nomeCrianca"`
	CounselorName   *string   `json:"nomeConselheira"`
}

// CaseDetail is a case joined with its child, counselor and guardians.
type CaseDetail struct {
	ID              int64      `json:"id_caso"`
	OpeningDate     time.Time  `json:"data_abertura"`
	Status          string     `json:"status"`
	Description     string     `json:"descricao_ocorrencia"`
	Measures        string     `json:"medidas_adotadas"`
	AttendanceCode  string     `json:"codigo_atendimento"`
	ProcedureNumber string     `json:"numero_procedimento"`
	RegisteredAt    time.Time  `json:"data_hora_registro"`
	ClosedAt        *time.Time `json:"data_encerramento"`
	ChildName       string     `json:"nomeCrianca"`
	ChildBirthDate  *time.Time `json:"data_nascimento"`
	ChildSex        string     `json:"sexo"`
	ChildSchooling  string     `json:"escolaridade"`
	CounselorID     *int64     `json:"id_conselheira_atendimento"`
	CounselorName   *string    `json:"nomeConselheira"`
	GuardianNames   []string   `json:"nomesResponsaveis"`
	GuardianPhones  []string   `json:"telefonesResponsaveis"`
	Addresses       []string   `json:"enderecosResponsaveis"`
}

// Stats holds the dashboard counters.
type Stats struct {
	OpenCases   int64 `json:"casosPendentes"`
	ClosedCases int64 `json:"casosAtendidos"`
	Users       int64 `json:"usuariosAtivos"`
}

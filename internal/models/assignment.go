package models

import "time"

// CatalogAssignment связь пользователя с каталогом. Ключ (CatalogID, UserID).
// У пользователя не более одной связи с IsPrimary = true.
type CatalogAssignment struct {
	CatalogID    string
	UserID       string
	IsPrimary    bool
	AssignedByID *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ContractAssignment связь пользователя с прайс-контрактом.
type ContractAssignment struct {
	ContractID   string
	UserID       string
	AssignedByID *string
	CreatedAt    time.Time
}

// PriceContract прайс-контракт.
type PriceContract struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AssignCatalogsRequest тело запроса на массовое назначение каталогов.
type AssignCatalogsRequest struct {
	UserIDs          []string `json:"user_ids" validate:"required,min=1,dive,uuid"`
	CatalogIDs       []string `json:"catalog_ids" validate:"required,min=1,dive,uuid"`
	PrimaryCatalogID string   `json:"primary_catalog_id,omitempty" validate:"omitempty,uuid"`
}

// AssignContractsRequest тело запроса на массовое назначение контрактов.
type AssignContractsRequest struct {
	UserIDs     []string `json:"user_ids" validate:"required,min=1,dive,uuid"`
	ContractIDs []string `json:"contract_ids" validate:"required,min=1,dive,uuid"`
}

// AssignmentEvent сообщение об изменении назначений пользователя,
// публикуемое для сервиса уведомлений.
type AssignmentEvent struct {
	UserID           string   `json:"user_id"`
	CatalogIDs       []string `json:"catalog_ids,omitempty"`
	ContractIDs      []string `json:"contract_ids,omitempty"`
	PrimaryCatalogID string   `json:"primary_catalog_id,omitempty"`
	AssignedByID     string   `json:"assigned_by_id,omitempty"`
}

// UserRegisteredEvent событие регистрации пользователя от провайдера идентификации.
type UserRegisteredEvent struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Package models содержит доменные структуры сервиса назначений:
// пользователей, каталоги, прайс-контракты и связи между ними,
// а также типы запросов, принимаемых из JSON.
package models

import "time"

// User представляет пользователя системы. Пользователи не удаляются,
// а деактивируются флагом IsActive.
type User struct {
	ID                      string    `json:"id"`
	Email                   string    `json:"email"`
	Name                    string    `json:"name"`
	Role                    Role      `json:"role"`
	PrimaryCatalogID        *string   `json:"primary_catalog_id,omitempty"`         // Кэшированный основной каталог
	AssignedToDistributorID *string   `json:"assigned_to_distributor_id,omitempty"` // Дистрибьютор, который ведёт пользователя
	AssignedToRsmID         *string   `json:"assigned_to_rsm_id,omitempty"`         // RSM, который ведёт пользователя
	AccountID               *string   `json:"account_id,omitempty"`
	IsActive                bool      `json:"is_active"`
	CreatedAt               time.Time `json:"created_at"`
}

// Principal действующий субъект запроса, полученный от провайдера идентификации.
type Principal struct {
	ID   string
	Role Role
}

// UsersFilter параметры постраничной выборки пользователей.
type UsersFilter struct {
	Search string
	Page   int
	Limit  int
}

// Offset возвращает смещение для текущей страницы (страницы нумеруются с 1).
func (f UsersFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// CatalogRef краткое описание назначенного каталога в выдаче списка пользователей.
type CatalogRef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsPrimary bool   `json:"is_primary"`
}

// ContractRef краткое описание назначенного контракта.
type ContractRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserAssignments строка выдачи для интерфейса управления.
type UserAssignments struct {
	User
	PrimaryCatalog    *CatalogRef   `json:"primary_catalog"`
	AssignedCatalogs  []CatalogRef  `json:"assigned_catalogs"`
	AssignedContracts []ContractRef `json:"assigned_contracts"`
}

// UsersPage страница выдачи пользователей.
type UsersPage struct {
	Users []*UserAssignments `json:"users"`
	Total int                `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

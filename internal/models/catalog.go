package models

import "time"

// Catalog каталог («проектная книга»). Мастер-каталог и каталог по умолчанию
// существуют в единственном экземпляре.
type Catalog struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsMaster  bool      `json:"is_master"`  // Виден всем пользователям без назначения
	IsDefault bool      `json:"is_default"` // Стартовый каталог для новых платных аккаунтов
	IsActive  bool      `json:"is_active"`
	IsPublic  bool      `json:"is_public"`
	Margin    *float64  `json:"margin,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// VisibleCatalog каталог, доступный пользователю для просмотра.
type VisibleCatalog struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsMaster  bool   `json:"is_master"`
	IsPrimary bool   `json:"is_primary"`
}

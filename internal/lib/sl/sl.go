// Package sl содержит атрибуты slog для единообразного логирования ошибок.
package sl

import (
	"log/slog"

	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/apperr"
)

// Err возвращает атрибут "error" с текстом ошибки. Для nil пишется пустая строка.
//
//	log.Error("failed to assign catalogs", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Kind возвращает атрибут "error_kind" с классом доменной ошибки.
func Kind(err error) slog.Attr {
	return slog.String("error_kind", apperr.KindOf(err).String())
}

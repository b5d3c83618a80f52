package bot

import (
	"fmt"
	"math"
	"time"

	"github.com/hitoshi/linkshelf/internal/model"
)

// 会話フローの応答メッセージ
const (
	MsgStartWithoutAccount = "¡Hola! Para vincular tu cuenta, usa el botón de la app web."
	MsgAlreadyLinked       = "✅ Tu cuenta de Telegram ya está vinculada. ¡Ya puedes empezar a compartir artículos para guardarlos!"
	MsgRelinked            = "✅ ¡Tu cuenta de Telegram ha sido re-vinculada correctamente! Se han limpiado las vinculaciones anteriores."
	MsgNewlyLinked         = "✅ ¡Tu cuenta de Telegram ha sido vinculada correctamente!"
	MsgNotLinked           = "❌ Debes vincular tu cuenta primero usando el botón de la app web."
	MsgSendLink            = "Envíame un enlace para guardarlo."
)

// エラー分類ごとのユーザー向けメッセージ
const (
	MsgStoreConflict      = "⚠️ Ya existe un registro con estos datos. Intenta con información diferente."
	MsgStoreReference     = "❌ Error de referencia en la base de datos. Contacta al administrador."
	MsgStoreMissingTable  = "❌ Error de configuración de la base de datos. Contacta al administrador."
	MsgStorePermission    = "❌ Error de permisos en la base de datos. Contacta al administrador."
	MsgStoreGeneric       = "❌ Error al acceder a la base de datos. Intenta de nuevo en unos momentos."
	MsgNetworkFetch       = "❌ No se pudo acceder a la URL. Verifica que el enlace sea válido y esté disponible."
	MsgNetworkTimeout     = "⏰ La página tardó demasiado en responder. Intenta de nuevo más tarde."
	MsgNetworkNotFound    = "❌ No se pudo encontrar la página. Verifica que la URL sea correcta."
	MsgNetworkRefused     = "❌ No se pudo conectar al servidor. Intenta de nuevo más tarde."
	MsgNetworkGeneric     = "❌ Error de conexión. Intenta de nuevo en unos momentos."
	MsgInvalidURL         = "❌ La URL no es válida. Asegúrate de que comience con http:// o https://"
	MsgInvalidAccountID   = "❌ ID de usuario inválido. Usa el botón de la app web para vincular tu cuenta."
	MsgRequired           = "❌ Faltan datos requeridos. Intenta de nuevo."
	MsgValidationGeneric  = "❌ Error de validación. Verifica los datos e intenta de nuevo."
	MsgTransportForbidden = "❌ No tengo permisos para enviar mensajes en este chat."
	MsgTransportFormat    = "❌ Error en el formato del mensaje. Intenta de nuevo."
	MsgTransportTooMany   = "⏰ Demasiadas solicitudes. Espera un momento antes de intentar de nuevo."
	MsgTransportGeneric   = "❌ Error al enviar el mensaje. Intenta de nuevo."
	MsgUnexpected         = "❌ Error inesperado. Nuestro equipo ha sido notificado. Intenta de nuevo más tarde."
)

// RateLimitMessage はレート制限時の応答を返す。待ち時間は秒単位に切り上げる。
func RateLimitMessage(retryAfter time.Duration) string {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	return fmt.Sprintf("⏳ Has alcanzado el límite de artículos. Espera %d segundos antes de enviar otro enlace.", seconds)
}

// UserMessage はエラーの分類と詳細コードからユーザー向けメッセージを選択する。
func UserMessage(err error) string {
	code := model.CodeOf(err)

	switch model.KindOf(err) {
	case model.KindStoreConflict:
		return MsgStoreConflict
	case model.KindStoreReference:
		return MsgStoreReference
	case model.KindStoreConfiguration:
		if code == model.CodeInsufficientPriv {
			return MsgStorePermission
		}
		return MsgStoreMissingTable
	case model.KindStoreGeneric:
		return MsgStoreGeneric
	case model.KindNetwork:
		return networkMessage(code)
	case model.KindValidation:
		return validationMessage(code)
	case model.KindTransportRejection:
		return transportMessage(code)
	case model.KindUnexpected:
		return MsgUnexpected
	default:
		return MsgUnexpected
	}
}

func networkMessage(code string) string {
	switch code {
	case model.CodeFetchFailed, model.CodeHTTPStatus, model.CodeUnsupportedContent:
		return MsgNetworkFetch
	case model.CodeTimeout:
		return MsgNetworkTimeout
	case model.CodeHostNotFound:
		return MsgNetworkNotFound
	case model.CodeConnectionRefused:
		return MsgNetworkRefused
	default:
		return MsgNetworkGeneric
	}
}

func validationMessage(code string) string {
	switch code {
	case model.CodeInvalidURL, model.CodeBlockedURL:
		return MsgInvalidURL
	case model.CodeInvalidAccountID:
		return MsgInvalidAccountID
	case model.CodeRequired:
		return MsgRequired
	default:
		return MsgValidationGeneric
	}
}

func transportMessage(code string) string {
	switch code {
	case model.CodeForbidden:
		return MsgTransportForbidden
	case model.CodeBadRequest:
		return MsgTransportFormat
	case model.CodeTooManyRequests:
		return MsgTransportTooMany
	default:
		return MsgTransportGeneric
	}
}

package endpoints

import (
	"github.com/jackzampolin/folio/internal/api"
)

// Config holds options for the endpoint set.
type Config struct {
	// DisableSwagger drops the OpenAPI endpoints.
	DisableSwagger bool
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	eps := []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&StatusEndpoint{},
		&FeaturesEndpoint{},

		// Document session endpoints
		&LoadDocumentEndpoint{},
		&ListDocumentsEndpoint{},
		&GetDocumentEndpoint{},
		&ReloadDocumentEndpoint{},
		&ResetDocumentEndpoint{},
		&CloseDocumentEndpoint{},

		// Edit endpoints
		&AddTextEndpoint{},
		&AddAnnotationEndpoint{},
		&DeletePageEndpoint{},
		&InsertPageEndpoint{},
		&ReorderPagesEndpoint{},
		&ExtractPagesEndpoint{},
		&MergeEndpoint{},
		&SplitEndpoint{},

		// Form endpoints
		&GetFormEndpoint{},
		&FillFormEndpoint{},
		&InvoiceEndpoint{},

		// Page endpoints
		&PageImageEndpoint{},
		&PageTextEndpoint{},
		&PageOCREndpoint{},
		&ImageOCREndpoint{},

		// View endpoints
		&GetViewEndpoint{},
		&ViewActionEndpoint{},
		&ViewKeyEndpoint{},
		&ViewImageEndpoint{},

		// Export endpoints
		&DownloadEndpoint{},
		&ExportEndpoint{},
	}
	if cfg.DisableSwagger {
		return eps
	}
	return append(eps,
		&SwaggerEndpoint{Routes: eps},
		&SwaggerUIEndpoint{},
	)
}

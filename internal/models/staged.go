package models

// VerificationStatus classifies a staged product before any creation attempt.
type VerificationStatus string

const (
	VerificationReady          VerificationStatus = "ready"
	VerificationMissingImages  VerificationStatus = "missing_images"
	VerificationMissingCSVData VerificationStatus = "missing_csv_data"
	VerificationDuplicate      VerificationStatus = "duplicate"
	VerificationError          VerificationStatus = "error"
)

// ProcessingStatus tracks the creation pipeline state of a staged product.
// It is independent from VerificationStatus: only "ready" products are ever
// moved out of "pending".
type ProcessingStatus string

const (
	ProcessingPending    ProcessingStatus = "pending"
	ProcessingInProgress ProcessingStatus = "processing"
	ProcessingCompleted  ProcessingStatus = "completed"
	ProcessingError      ProcessingStatus = "error"
)

// ImageAsset is an uploaded image matched to a staged product by SKU.
// Position is the trailing index parsed from the filename and defines the
// gallery order sent to the catalog service.
type ImageAsset struct {
	FileName    string `json:"fileName"`
	SKU         string `json:"sku"`
	NameHint    string `json:"nameHint,omitempty"`
	Position    int    `json:"position"`
	Size        int64  `json:"size,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// IgnoredFile records an uploaded file that was excluded from matching,
// with the reason surfaced to the caller.
type IgnoredFile struct {
	FileName string `json:"fileName"`
	Reason   string `json:"reason"`
}

// StagedProduct is the unit of work of an ingestion batch: one candidate
// product per distinct SKU observed across the manifest and the image set.
// It is a transient in-memory record; the external catalog service remains
// the system of record.
type StagedProduct struct {
	SKU                 string             `json:"sku"`
	Name                string             `json:"name"`
	Images              []ImageAsset       `json:"images"`
	CSVData             map[string]string  `json:"csvData"`
	VerificationStatus  VerificationStatus `json:"verificationStatus"`
	VerificationMessage string             `json:"verificationMessage,omitempty"`
	ProcessingStatus    ProcessingStatus   `json:"processingStatus"`
	ProcessingMessage   string             `json:"processingMessage,omitempty"`
	Progress            int                `json:"progress"`
	RemoteID            string             `json:"remoteId,omitempty"`
	RemoteURL           string             `json:"remoteUrl,omitempty"`
}

// VariationAttribute is one attribute declared on a manifest row via the
// atributo_N_* column group. RawValues carries the pipe-delimited value list
// exactly as written in the manifest.
type VariationAttribute struct {
	Name          string `json:"name"`
	RawValues     string `json:"values"`
	ForVariations bool   `json:"forVariations"`
	Visible       bool   `json:"visible"`
}

// AttributeSelection is one attribute/value pair of a generated variation.
type AttributeSelection struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

// GeneratedVariation is one concrete combination of attribute values under a
// variable product. Price and stock start blank and are populated by the
// orchestrator from the manifest row.
type GeneratedVariation struct {
	SKU           string               `json:"sku"`
	Selections    []AttributeSelection `json:"selections"`
	RegularPrice  string               `json:"regularPrice,omitempty"`
	StockQuantity *int                 `json:"stockQuantity,omitempty"`
}

// Dimensions groups the physical dimensions sent to the catalog service.
type Dimensions struct {
	Length string `json:"length,omitempty"`
	Width  string `json:"width,omitempty"`
	Height string `json:"height,omitempty"`
}

// ProductPayload is the single creation request submitted to the catalog
// service for one staged product.
type ProductPayload struct {
	SKU              string               `json:"sku"`
	Name             string               `json:"name"`
	Type             string               `json:"type"`
	RegularPrice     string               `json:"regularPrice,omitempty"`
	SalePrice        string               `json:"salePrice,omitempty"`
	StockQuantity    *int                 `json:"stockQuantity,omitempty"`
	Weight           string               `json:"weight,omitempty"`
	Dimensions       Dimensions           `json:"dimensions"`
	ShippingClass    string               `json:"shippingClass,omitempty"`
	Categories       []string             `json:"categories,omitempty"`
	Tags             []string             `json:"tags,omitempty"`
	ShortDescription string               `json:"shortDescription,omitempty"`
	Description      string               `json:"description,omitempty"`
	Attributes       []VariationAttribute `json:"attributes,omitempty"`
	Variations       []GeneratedVariation `json:"variations,omitempty"`
	Images           []ImageAsset         `json:"images,omitempty"`
}

// ProcessSummary is the aggregate outcome of one orchestrator run. Products
// rejected during verification are never attempted and are not counted here.
type ProcessSummary struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

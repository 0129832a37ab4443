package domain

import "time"

// SealFieldType enumerates the kinds of text placed on a seal.
type SealFieldType string

const (
	FieldText            SealFieldType = "TEXT"
	FieldDate            SealFieldType = "DATE"
	FieldTime            SealFieldType = "TIME"
	FieldCertificateInfo SealFieldType = "CERTIFICATE_INFO"
)

// CertificateField selects which certificate attribute a CERTIFICATE_INFO field prints.
type CertificateField string

const (
	CertFieldCN    CertificateField = "CN"
	CertFieldCPF   CertificateField = "CPF"
	CertFieldCNPJ  CertificateField = "CNPJ"
	CertFieldEmail CertificateField = "EMAIL"
)

type FontWeight string

const (
	FontNormal FontWeight = "normal"
	FontBold   FontWeight = "bold"
)

// SealTemplate describes the visual frame of a seal.
type SealTemplate struct {
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	BackgroundColor string `json:"backgroundColor"`
	BorderColor     string `json:"borderColor"`
	BorderWidth     int    `json:"borderWidth"`
	BorderRadius    int    `json:"borderRadius"`
}

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// SealField is one text element positioned on the seal.
type SealField struct {
	ID               string           `json:"id"`
	Type             SealFieldType    `json:"type"`
	Label            string           `json:"label"`
	CertificateField CertificateField `json:"certificateField,omitempty"`
	Position         Position         `json:"position"`
	FontSize         int              `json:"fontSize"`
	FontColor        string           `json:"fontColor"`
	FontWeight       FontWeight       `json:"fontWeight"`
}

// SignatureSeal is the visual stamp applied to signed documents.
type SignatureSeal struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	IsNative           bool         `json:"isNative"`
	IsDefault          bool         `json:"isDefault"`
	UseCustomImageOnly bool         `json:"useCustomImageOnly"`
	CustomSealImage    string       `json:"customSealImage,omitempty"`
	WatermarkImage     string       `json:"watermarkImage,omitempty"`
	WatermarkOpacity   float64      `json:"watermarkOpacity"`
	Template           SealTemplate `json:"template"`
	Fields             []SealField  `json:"fields"`
	CreatedAt          time.Time    `json:"createdAt"`
	UpdatedAt          time.Time    `json:"updatedAt"`
}

// NativeSealID is the identifier of the built-in default seal.
const NativeSealID = "native-1"

var builtinSealStamp = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// BuiltinSeals returns a fresh copy of the seals shipped with the dashboard.
// They are never persisted and cannot be edited or removed.
func BuiltinSeals() []SignatureSeal {
	return []SignatureSeal{
		{
			ID:               NativeSealID,
			Name:             "Selo Padrão ICP-Brasil",
			IsNative:         true,
			IsDefault:        true,
			WatermarkOpacity: 0,
			Template: SealTemplate{
				Width:           250,
				Height:          100,
				BackgroundColor: "#ffffff",
				BorderColor:     "#2563EB",
				BorderWidth:     2,
				BorderRadius:    4,
			},
			Fields: []SealField{
				{
					ID:               "f1",
					Type:             FieldCertificateInfo,
					Label:            "Assinado por:",
					CertificateField: CertFieldCN,
					Position:         Position{X: 10, Y: 10},
					FontSize:         14,
					FontColor:        "#000000",
					FontWeight:       FontBold,
				},
				{
					ID:         "f2",
					Type:       FieldDate,
					Label:      "Data:",
					Position:   Position{X: 10, Y: 40},
					FontSize:   12,
					FontColor:  "#475569",
					FontWeight: FontNormal,
				},
			},
			CreatedAt: builtinSealStamp,
			UpdatedAt: builtinSealStamp,
		},
	}
}

// IsBuiltinSeal reports whether id belongs to a built-in seal.
func IsBuiltinSeal(id string) bool {
	for _, seal := range BuiltinSeals() {
		if seal.ID == id {
			return true
		}
	}
	return false
}

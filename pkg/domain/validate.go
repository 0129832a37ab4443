package domain

import "strings"

// Validate checks the structural rules of a certificate record.
func (c Certificate) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return invalid("id", "is required")
	}
	switch c.Type {
	case CertificateA1, CertificateA3, CertificateTest:
	default:
		return invalid("type", "unknown value %q", c.Type)
	}
	switch c.Source {
	case SourceFile, SourceToken, SourceSmartcard:
	default:
		return invalid("source", "unknown value %q", c.Source)
	}
	if strings.TrimSpace(c.SubjectName) == "" {
		return invalid("subjectName", "is required")
	}
	if !c.ValidFrom.IsZero() && !c.ValidTo.IsZero() && c.ValidTo.Before(c.ValidFrom) {
		return invalid("validTo", "must not precede validFrom")
	}
	if c.IsTest != (c.Type == CertificateTest) {
		return invalid("isTest", "must be true only for TEST certificates")
	}
	return nil
}

func (d SignedDocument) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return invalid("id", "is required")
	}
	if strings.TrimSpace(d.OriginalFileName) == "" {
		return invalid("originalFileName", "is required")
	}
	switch d.FileType {
	case FilePDF, FileXML:
	default:
		return invalid("fileType", "unknown value %q", d.FileType)
	}
	switch d.Status {
	case StatusValid, StatusExpired, StatusRevoked, StatusInvalid:
	default:
		return invalid("status", "unknown value %q", d.Status)
	}
	if d.FileSize < 0 {
		return invalid("fileSize", "must be >= 0")
	}
	return nil
}

// Validate checks a seal definition, including every positioned field.
func (s SignatureSeal) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return invalid("id", "is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return invalid("name", "is required")
	}
	if s.WatermarkOpacity < 0 || s.WatermarkOpacity > 1 {
		return invalid("watermarkOpacity", "must be within [0,1]")
	}
	if s.Template.Width <= 0 || s.Template.Height <= 0 {
		return invalid("template", "width and height must be > 0")
	}
	if s.UseCustomImageOnly && s.CustomSealImage == "" {
		return invalid("customSealImage", "is required when useCustomImageOnly is set")
	}
	for _, field := range s.Fields {
		switch field.Type {
		case FieldText, FieldDate, FieldTime, FieldCertificateInfo:
		default:
			return invalid("fields."+field.ID, "unknown type %q", field.Type)
		}
		switch field.CertificateField {
		case "", CertFieldCN, CertFieldCPF, CertFieldCNPJ, CertFieldEmail:
		default:
			return invalid("fields."+field.ID, "unknown certificate field %q", field.CertificateField)
		}
		switch field.FontWeight {
		case "", FontNormal, FontBold:
		default:
			return invalid("fields."+field.ID, "unknown font weight %q", field.FontWeight)
		}
	}
	return nil
}

package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestCertificateValidate(t *testing.T) {
	base := Certificate{
		ID:          "c1",
		Type:        CertificateA1,
		Source:      SourceFile,
		SubjectName: "ACME LTDA",
		ValidFrom:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidTo:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid certificate, got %v", err)
	}

	cases := map[string]func(c *Certificate){
		"missing id":      func(c *Certificate) { c.ID = "" },
		"unknown type":    func(c *Certificate) { c.Type = "A4" },
		"unknown source":  func(c *Certificate) { c.Source = "CLOUD" },
		"missing subject": func(c *Certificate) { c.SubjectName = " " },
		"inverted window": func(c *Certificate) { c.ValidTo = c.ValidFrom.Add(-time.Hour) },
		"test flag":       func(c *Certificate) { c.IsTest = true },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cert := base
			mutate(&cert)
			err := cert.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !IsValidation(err) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestCertificateExpiry(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	cert := Certificate{ValidTo: now.Add(10 * 24 * time.Hour)}
	if cert.Expired(now) {
		t.Fatalf("certificate should not be expired yet")
	}
	if !cert.ExpiresWithin(now, 30*24*time.Hour) {
		t.Fatalf("expected certificate to expire within 30 days")
	}
	if cert.ExpiresWithin(now, 5*24*time.Hour) {
		t.Fatalf("did not expect expiry within 5 days")
	}
	if !cert.ExpiresWithin(now, 10*24*time.Hour) {
		t.Fatalf("expiry exactly at the window boundary must count as expiring")
	}
	if !cert.Expired(now.Add(11 * 24 * time.Hour)) {
		t.Fatalf("expected expired certificate")
	}
}

func TestDocumentPatchApply(t *testing.T) {
	doc := SignedDocument{ID: "d1", SignerName: "Ana"}
	patched, err := BackedUp("drive-1").Apply(doc)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !patched.IsBackedUp || patched.ExternalFileID != "drive-1" {
		t.Fatalf("patch not applied: %+v", patched)
	}
	if patched.SignerName != "Ana" {
		t.Fatalf("unrelated field changed")
	}

	off := false
	if _, err := (DocumentPatch{IsBackedUp: &off}).Apply(patched); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if !(DocumentPatch{}).Empty() {
		t.Fatalf("zero patch should be empty")
	}
}

func TestBuiltinSealsAreFresh(t *testing.T) {
	first := BuiltinSeals()
	first[0].Name = "mutated"
	second := BuiltinSeals()
	if second[0].Name != "Selo Padrão ICP-Brasil" {
		t.Fatalf("builtin seals share state: %s", second[0].Name)
	}
	if !second[0].IsNative || !second[0].IsDefault {
		t.Fatalf("native seal flags not set")
	}
	if err := second[0].Validate(); err != nil {
		t.Fatalf("builtin seal invalid: %v", err)
	}
	if !IsBuiltinSeal(NativeSealID) || IsBuiltinSeal("custom") {
		t.Fatalf("IsBuiltinSeal mismatch")
	}
}

func TestSealValidate(t *testing.T) {
	seal := BuiltinSeals()[0]
	seal.ID = "s1"
	seal.WatermarkOpacity = 1.5
	if err := seal.Validate(); err == nil {
		t.Fatalf("expected opacity error")
	}
	seal.WatermarkOpacity = 0.3
	seal.Fields = append(seal.Fields, SealField{ID: "f3", Type: "BARCODE"})
	if err := seal.Validate(); err == nil {
		t.Fatalf("expected field type error")
	}
}

func TestValidateFile(t *testing.T) {
	cases := []struct {
		name        string
		file        string
		contentType string
		size        int64
		wantErr     bool
	}{
		{name: "pdf", file: "contract.pdf", contentType: "application/pdf", size: 1024},
		{name: "xml by type", file: "nfe", contentType: "text/xml; charset=utf-8", size: 10},
		{name: "xml by extension", file: "nfe.XML", contentType: "application/octet-stream", size: 10},
		{name: "too large", file: "big.pdf", contentType: "application/pdf", size: DefaultMaxFileSize + 1, wantErr: true},
		{name: "wrong type", file: "photo.png", contentType: "image/png", size: 10, wantErr: true},
		{name: "missing name", file: "", contentType: "application/pdf", size: 10, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFile(tc.file, tc.contentType, tc.size, 0)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestFileNames(t *testing.T) {
	if got := SanitizeFileName("relatório final (v2).pdf"); got != "relat_rio_final__v2_.pdf" {
		t.Fatalf("unexpected sanitized name %q", got)
	}
	if got := SanitizeFileName(strings.Repeat("a", 150)); len(got) != 100 {
		t.Fatalf("expected truncation to 100, got %d", len(got))
	}
	if FileTypeFromName("nota.xml") != FileXML || FileTypeFromName("nota.pdf") != FilePDF {
		t.Fatalf("file type detection mismatch")
	}
	if SignedFileName("a.pdf") != "ASSINADO_a.pdf" {
		t.Fatalf("unexpected signed file name")
	}
}

func TestEntitiesRoundTrip(t *testing.T) {
	stamp := time.Date(2024, 3, 10, 12, 30, 0, 0, time.UTC)
	values := []any{
		&Certificate{ID: "c1", Type: CertificateTest, Source: SourceToken, SubjectName: "José Ñúñez", ValidFrom: stamp, ValidTo: stamp.AddDate(1, 0, 0), IsTest: true, CreatedAt: stamp},
		&SignedDocument{ID: "d1", OriginalFileName: "ação.pdf", SignedFileName: "ASSINADO_ação.pdf", FileType: FilePDF, FileSize: 42, SignedAt: stamp, Status: StatusValid, SignerName: "Zoë"},
		&AuditLog{ID: "a1", Timestamp: stamp, Action: "LOAD_CERTIFICATE", EntityType: EntityCertificate, EntityID: "c1", Result: ResultSuccess, Details: "ok"},
	}
	seal := BuiltinSeals()[0]
	values = append(values, &seal)

	for _, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal %T: %v", v, err)
		}
		out := reflect.New(reflect.TypeOf(v).Elem()).Interface()
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("unmarshal %T: %v", v, err)
		}
		if !reflect.DeepEqual(v, out) {
			t.Fatalf("round trip mismatch for %T:\n%+v\n%+v", v, v, out)
		}
	}
}

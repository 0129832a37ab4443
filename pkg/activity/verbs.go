package activity

// Verbs double as the audit action codes.
const (
	VerbCertificateLoaded  = "LOAD_CERTIFICATE"
	VerbCertificateRemoved = "REMOVE_CERTIFICATE"
	VerbDocumentSigned     = "SIGN_DOCUMENT"
	VerbDocumentUpdated    = "UPDATE_DOCUMENT"
	VerbDocumentRemoved    = "REMOVE_DOCUMENT"
	VerbSealCreated        = "CREATE_SEAL"
	VerbSealRemoved        = "REMOVE_SEAL"
	VerbAuditCleared       = "CLEAR_AUDIT_LOG"
)

const (
	ResultSuccess = "SUCCESS"
	ResultFailure = "FAILURE"
)

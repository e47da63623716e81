package mergefields

// Key is a dot-namespaced merge-field identifier, e.g. "client.full_name"
type Key string

// Field describes a known merge field for UI display
type Field struct {
	Key      Key    `json:"key"`
	Label    string `json:"label"`
	Category string `json:"category"`
}

// Known merge-field keys
const (
	KeyClientFullName  Key = "client.full_name"
	KeyClientEmail     Key = "client.email"
	KeyClientPhone     Key = "client.phone"
	KeyClientCompany   Key = "client.company"
	KeyCompanyName     Key = "company.name"
	KeyCompanyEmail    Key = "company.email"
	KeyCompanyAddress  Key = "company.address"
	KeyDocumentTitle   Key = "document.title"
	KeyDocumentCreated Key = "document.created_date"
	KeyDocumentDueDate Key = "document.due_date"
	KeyDocumentTotal   Key = "document.total"
	KeyTodayDate       Key = "today.date"
)

// Known lists every supported field in display order
func Known() []Field {
	return []Field{
		{KeyClientFullName, "Client name", "client"},
		{KeyClientEmail, "Client email", "client"},
		{KeyClientPhone, "Client phone", "client"},
		{KeyClientCompany, "Client company", "client"},
		{KeyCompanyName, "Company name", "company"},
		{KeyCompanyEmail, "Company email", "company"},
		{KeyCompanyAddress, "Company address", "company"},
		{KeyDocumentTitle, "Document title", "document"},
		{KeyDocumentCreated, "Creation date", "document"},
		{KeyDocumentDueDate, "Due date", "document"},
		{KeyDocumentTotal, "Total amount", "document"},
		{KeyTodayDate, "Today's date", "system"},
	}
}
